// Package profile содержит бизнес-логику работы с профилями: собственный
// профиль, стаффовые выборки и частичное обновление с проверкой доступа.
package profile

import (
	"context"
	"log/slog"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/models"
)

// ProfileRepository описывает контракт хранилища профилей.
type ProfileRepository interface {
	// GetProfile возвращает профиль по UID или NotFoundError.
	GetProfile(ctx context.Context, uid string) (*models.Profile, error)
	// ListProfiles возвращает профили по фильтру с пагинацией.
	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, error)
	// UpdateProfile применяет частичное обновление и возвращает число строк.
	UpdateProfile(ctx context.Context, uid string, upd models.ProfileUpdate) (int64, error)
}

// ProfileService реализует операции над профилями.
type ProfileService struct {
	repo ProfileRepository
	log  *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo ProfileRepository, log *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, log: log}
}

// Me возвращает собственный профиль актора.
func (s *ProfileService) Me(ctx context.Context, actor authz.Actor) (*models.SafeProfile, error) {
	p, err := s.repo.GetProfile(ctx, actor.UID)
	if err != nil {
		return nil, err
	}
	safe := p.Safe()
	return &safe, nil
}

// List возвращает профили, доступные актору.
// Для admin фильтр по коучу принудительно сужается до его собственного UID.
func (s *ProfileService) List(ctx context.Context, actor authz.Actor, filter models.ProfileFilter) ([]*models.SafeProfile, error) {
	if !actor.CanListProfiles() {
		return nil, apperr.New(apperr.KindAuthorization, "insufficient permissions")
	}
	if scope, scoped := actor.CoachScope(); scoped {
		filter.CoachUID = &scope
	}

	profiles, err := s.repo.ListProfiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := make([]*models.SafeProfile, 0, len(profiles))
	for _, p := range profiles {
		safe := p.Safe()
		result = append(result, &safe)
	}
	return result, nil
}

// Get возвращает профиль по UID, если он доступен актору.
func (s *ProfileService) Get(ctx context.Context, actor authz.Actor, uid string) (*models.SafeProfile, error) {
	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !actor.CanReadProfile(p.Target()) {
		return nil, apperr.New(apperr.KindAuthorization, "insufficient permissions")
	}
	safe := p.Safe()
	return &safe, nil
}

// Update применяет частичное изменение профиля.
//
// Перед записью текущая запись загружается и patch проверяется против неё:
// решение о доступе принимается по фактической роли и коучу записи, а не
// по данным запроса.
func (s *ProfileService) Update(ctx context.Context, actor authz.Actor, uid string, upd models.ProfileUpdate) (*models.SafeProfile, error) {
	target, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	patch := authz.ProfilePatch{
		FullName:       upd.FullName,
		Bio:            upd.Bio,
		NutritionNotes: upd.NutritionNotes,
		PlanID:         upd.PlanID,
		Role:           upd.Role,
		Capabilities:   upd.Permissions,
	}
	if err := actor.AuthorizeProfilePatch(target.Target(), patch); err != nil {
		return nil, err
	}

	count, err := s.repo.UpdateProfile(ctx, uid, upd)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.New(apperr.KindNotFound, "profile not found")
	}

	s.log.Info("profile updated", slog.String("uid", uid), slog.String("by", actor.UID))
	updated, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	safe := updated.Safe()
	return &safe, nil
}
