package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/models"
)

// CreatePlan сохраняет новый тарифный план.
func (s *Storage) CreatePlan(ctx context.Context, plan models.TrainingPlan) error {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(plan.Features)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO training_plans (id, name, price, duration_months, features)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.DurationMonths, features); err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.KindConflict, "plan already exists", fmt.Errorf("%s: %w", op, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPlan возвращает план по его ID.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.TrainingPlan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p := &models.TrainingPlan{}
	var features []byte
	query := `SELECT id, name, price, duration_months, features
			  FROM training_plans
			  WHERE id = $1`
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &features)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.KindNotFound, "plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return p, nil
}

// ListPlans возвращает весь каталог планов.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.TrainingPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, duration_months, features
			  FROM training_plans
			  ORDER BY price`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TrainingPlan
	for rows.Next() {
		var p models.TrainingPlan
		var features []byte
		if err = rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(features) > 0 {
			if err = json.Unmarshal(features, &p.Features); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
