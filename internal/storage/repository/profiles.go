package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/models"
)

const profileColumns = `uid, email, full_name, password_hash, role, permissions,
			      active_plan_id, processor_customer_id, assigned_coach_uid, bio,
			      nutrition_notes, created_at`

// CreateProfile сохраняет новый профиль и возвращает его UID.
// Дубликат email транслируется в ConflictError.
func (s *Storage) CreateProfile(ctx context.Context, p models.Profile) (string, error) {
	const op = "storage.CreateProfile"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	perms, err := json.Marshal(p.Permissions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newUID string
	query := `INSERT INTO profiles (email, full_name, password_hash, role, permissions,
			      assigned_coach_uid, bio, nutrition_notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		p.Email, p.FullName, p.PasswordHash, p.Role, perms,
		p.AssignedCoachUID, p.Bio, p.NutritionNotes).Scan(&newUID); err != nil {
		if isUniqueViolation(err) {
			return "", apperr.Wrap(apperr.KindConflict, "email already registered", fmt.Errorf("%s: %w", op, err))
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

func scanProfile(row interface{ Scan(dest ...any) error }) (*models.Profile, error) {
	p := &models.Profile{}
	var perms []byte
	var planID, customerID, coachUID, bio, nutrition sql.NullString

	if err := row.Scan(&p.UID, &p.Email, &p.FullName, &p.PasswordHash, &p.Role, &perms,
		&planID, &customerID, &coachUID, &bio, &nutrition, &p.CreatedAt); err != nil {
		return nil, err
	}

	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &p.Permissions); err != nil {
			return nil, err
		}
	}
	if planID.Valid {
		p.ActivePlanID = &planID.String
	}
	if customerID.Valid {
		p.ProcessorCustomerID = &customerID.String
	}
	if coachUID.Valid {
		p.AssignedCoachUID = &coachUID.String
	}
	if bio.Valid {
		p.Bio = &bio.String
	}
	if nutrition.Valid {
		p.NutritionNotes = &nutrition.String
	}
	return p, nil
}

// GetProfile возвращает профиль по его UID.
func (s *Storage) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + `
			  FROM profiles
			  WHERE uid = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "profile not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetProfileByEmail возвращает профиль по email.
func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const op = "storage.GetProfileByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + `
			  FROM profiles
			  WHERE email = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "profile not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListProfiles возвращает профили по фильтру с пагинацией.
func (s *Storage) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, error) {
	const op = "storage.ListProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + `
			  FROM profiles
			  WHERE ($1::text IS NULL OR role = $1)
			    AND ($2::text IS NULL OR assigned_coach_uid = $2)
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`

	var role, coach *string
	if filter.Role != nil {
		r := string(*filter.Role)
		role = &r
	}
	if filter.CoachUID != nil {
		coach = filter.CoachUID
	}

	rows, err := s.DB.QueryContext(ctx, query, role, coach, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateProfile применяет частичное обновление; nil-поля не трогаются.
// Возвращает число обновлённых строк.
func (s *Storage) UpdateProfile(ctx context.Context, uid string, upd models.ProfileUpdate) (int64, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var perms []byte
	if upd.Permissions != nil {
		var err error
		perms, err = json.Marshal(upd.Permissions)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	var role *string
	if upd.Role != nil {
		r := string(*upd.Role)
		role = &r
	}

	query := `UPDATE profiles
			  SET full_name       = COALESCE($2, full_name),
			      bio             = COALESCE($3, bio),
			      nutrition_notes = COALESCE($4, nutrition_notes),
			      active_plan_id  = COALESCE($5, active_plan_id),
			      role            = COALESCE($6, role),
			      permissions     = COALESCE($7, permissions)
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, uid,
		upd.FullName, upd.Bio, upd.NutritionNotes, upd.PlanID, role, perms)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ApplyEntitlement идемпотентно привязывает оплаченный план и идентификатор
// покупателя к профилю с данным email.
//
// Возвращает true только если строка реально изменилась: повторное применение
// того же события не затрагивает ни одной строки. Отсутствие профиля — не
// ошибка, а (false, nil).
func (s *Storage) ApplyEntitlement(ctx context.Context, email, planID, customerID string) (bool, error) {
	const op = "storage.ApplyEntitlement"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET active_plan_id        = $2,
			      processor_customer_id = $3
			  WHERE email = $1
			    AND (active_plan_id IS DISTINCT FROM $2
			     OR processor_customer_id IS DISTINCT FROM $3)`
	res, err := s.DB.ExecContext(ctx, query, email, planID, customerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// FindProcessorCustomerID возвращает сохранённый идентификатор покупателя
// для email, если профиль существует и идентификатор уже известен.
func (s *Storage) FindProcessorCustomerID(ctx context.Context, email string) (string, bool, error) {
	const op = "storage.FindProcessorCustomerID"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var customerID sql.NullString
	query := `SELECT processor_customer_id FROM profiles WHERE email = $1`
	err := s.DB.QueryRowContext(ctx, query, email).Scan(&customerID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return customerID.String, customerID.Valid, nil
}
