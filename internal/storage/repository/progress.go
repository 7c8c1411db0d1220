package repository

import (
	"context"
	"fmt"

	"github.com/coachflow/coaching-platform/internal/models"
)

// CreateProgress добавляет замер участника и возвращает его ID.
// Записи неизменяемы: методов обновления и удаления нет.
func (s *Storage) CreateProgress(ctx context.Context, p models.MemberProgress) (int, error) {
	const op = "storage.CreateProgress"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO member_progress (member_uid, coach_uid, weight_kg, body_fat_pct,
			      performance_score, recorded_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		p.MemberUID, p.CoachUID, p.WeightKG, p.BodyFatPct,
		p.PerformanceScore, p.RecordedAt).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListProgressForMember возвращает замеры участника по убыванию времени замера.
func (s *Storage) ListProgressForMember(ctx context.Context, memberUID string, limit, offset int) ([]*models.MemberProgress, error) {
	const op = "storage.ListProgressForMember"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, member_uid, coach_uid, weight_kg, body_fat_pct,
			      performance_score, recorded_at
			  FROM member_progress
			  WHERE member_uid = $1
			  ORDER BY recorded_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, memberUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.MemberProgress
	for rows.Next() {
		var p models.MemberProgress
		if err = rows.Scan(&p.ID, &p.MemberUID, &p.CoachUID, &p.WeightKG,
			&p.BodyFatPct, &p.PerformanceScore, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
