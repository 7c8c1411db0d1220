// Package progress ведёт замеры участников: только добавление и выборка,
// записи неизменяемы.
package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/models"
)

// ProgressRepository описывает контракт хранилища замеров.
type ProgressRepository interface {
	CreateProgress(ctx context.Context, p models.MemberProgress) (int, error)
	ListProgressForMember(ctx context.Context, memberUID string, limit, offset int) ([]*models.MemberProgress, error)
}

// ProfileReader загружает профиль участника для проверки роли и scope.
type ProfileReader interface {
	GetProfile(ctx context.Context, uid string) (*models.Profile, error)
}

// ProgressService реализует операции над замерами участников.
type ProgressService struct {
	repo     ProgressRepository
	profiles ProfileReader
	log      *slog.Logger
}

// NewProgressService создает новый экземпляр ProgressService.
func NewProgressService(repo ProgressRepository, profiles ProfileReader, log *slog.Logger) *ProgressService {
	return &ProgressService{repo: repo, profiles: profiles, log: log}
}

// RecordRequest — данные нового замера. Коуч и время берутся не отсюда:
// коуч — из токена актора, время — серверное.
type RecordRequest struct {
	MemberUID        string
	WeightKG         float64
	BodyFatPct       float64
	PerformanceScore int
}

// Record добавляет замер участнику.
// Целевой профиль обязан иметь роль member; замер по staff-профилю — ошибка
// валидации, а не доступа.
func (s *ProgressService) Record(ctx context.Context, actor authz.Actor, req RecordRequest) (int, error) {
	member, err := s.profiles.GetProfile(ctx, req.MemberUID)
	if err != nil {
		return 0, err
	}
	if member.Role != authz.RoleMember {
		return 0, apperr.New(apperr.KindValidation, "progress can only be recorded for members")
	}
	if err := actor.RequireCapability(authz.CapManageProgress, member.Target().CoachUID); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateProgress(ctx, models.MemberProgress{
		MemberUID:        req.MemberUID,
		CoachUID:         actor.UID,
		WeightKG:         req.WeightKG,
		BodyFatPct:       req.BodyFatPct,
		PerformanceScore: req.PerformanceScore,
		RecordedAt:       time.Now().UTC(),
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("progress recorded",
		slog.Int("id", id),
		slog.String("member_uid", req.MemberUID),
		slog.String("coach_uid", actor.UID))
	return id, nil
}

// ListForMember возвращает историю замеров участника.
// Участник видит только собственную историю; staff — в пределах своего scope
// при наличии manage_progress.
func (s *ProgressService) ListForMember(ctx context.Context, actor authz.Actor, memberUID string, limit, offset int) ([]*models.MemberProgress, error) {
	if actor.UID != memberUID {
		member, err := s.profiles.GetProfile(ctx, memberUID)
		if err != nil {
			return nil, err
		}
		if err := actor.RequireCapability(authz.CapManageProgress, member.Target().CoachUID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListProgressForMember(ctx, memberUID, limit, offset)
}
