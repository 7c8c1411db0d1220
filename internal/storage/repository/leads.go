package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/models"
)

const leadColumns = `id, name, email, phone, goal, source, status, assigned_coach_uid,
			      created_at, updated_at`

func scanLead(row interface{ Scan(dest ...any) error }) (*models.Lead, error) {
	l := &models.Lead{}
	var coachUID sql.NullString
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Goal, &l.Source,
		&l.Status, &coachUID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if coachUID.Valid {
		l.AssignedCoachUID = &coachUID.String
	}
	return l, nil
}

// CreateLead сохраняет нового лида в состоянии New и возвращает его ID.
// Любой прежний лид с тем же email, включая закрытый, блокирует повторный
// захват: уникальный индекс по email транслируется в ConflictError.
func (s *Storage) CreateLead(ctx context.Context, lead models.Lead) (int, error) {
	const op = "storage.CreateLead"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO leads (name, email, phone, goal, source, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		lead.Name, lead.Email, lead.Phone, lead.Goal, lead.Source, lead.Status).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Wrap(apperr.KindConflict, "lead already captured for this email", fmt.Errorf("%s: %w", op, err))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLead возвращает лида по его ID.
func (s *Storage) GetLead(ctx context.Context, id int) (*models.Lead, error) {
	const op = "storage.GetLead"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + leadColumns + `
			  FROM leads
			  WHERE id = $1`
	l, err := scanLead(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "lead not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// ListLeads возвращает лидов с пагинацией. При непустом coachUID выборка
// ограничивается лидами этого коуча и неназначенными лидами.
func (s *Storage) ListLeads(ctx context.Context, coachUID string, limit, offset int) ([]*models.Lead, error) {
	const op = "storage.ListLeads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + leadColumns + `
			  FROM leads
			  WHERE ($1 = '' OR assigned_coach_uid IS NULL OR assigned_coach_uid = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, coachUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AdvanceLead переводит лида в новое состояние и закрепляет его за коучем,
// если лид ещё не был назначен.
func (s *Storage) AdvanceLead(ctx context.Context, id int, status models.LeadStatus, coachUID string) error {
	const op = "storage.AdvanceLead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE leads
			  SET status             = $2,
			      assigned_coach_uid = COALESCE(assigned_coach_uid, $3),
			      updated_at         = now()
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, status, coachUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return apperr.New(apperr.KindNotFound, "lead not found")
	}
	return nil
}

// ConvertLead атомарно закрывает лида и создаёт из него профиль участника.
//
// В одной транзакции: лид блокируется FOR UPDATE; уже закрытый лид даёт
// ConflictError; коллизия email профиля откатывает транзакцию целиком, и лид
// остаётся в прежнем состоянии. Возвращает созданный профиль.
func (s *Storage) ConvertLead(ctx context.Context, id int, profile models.Profile) (*models.Profile, error) {
	const op = "storage.ConvertLead"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status models.LeadStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM leads WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.KindNotFound, "lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status.Terminal() {
		return nil, apperr.New(apperr.KindConflict, "lead already converted")
	}

	perms, err := json.Marshal(profile.Permissions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created := profile
	err = tx.QueryRowContext(ctx,
		`INSERT INTO profiles (email, full_name, password_hash, role, permissions, assigned_coach_uid)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING uid, created_at`,
		profile.Email, profile.FullName, profile.PasswordHash, profile.Role, perms,
		profile.AssignedCoachUID).Scan(&created.UID, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.KindConflict, "email already registered", fmt.Errorf("%s: %w", op, err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE leads
		 SET status             = $2,
		     assigned_coach_uid = COALESCE(assigned_coach_uid, $3),
		     updated_at         = now()
		 WHERE id = $1`,
		id, models.LeadClosed, profile.AssignedCoachUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &created, nil
}
