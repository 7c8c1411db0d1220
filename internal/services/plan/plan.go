// Package plan обслуживает каталог тарифных планов с кешированием в Redis.
package plan

import (
	"context"
	"log/slog"
	"time"

	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/models"
)

// catalogKey — ключ кеша всего каталога планов.
const catalogKey = "plans:catalog"

// catalogTTL ограничивает жизнь кеша на случай пропущенной инвалидации.
const catalogTTL = time.Hour

// PlanRepository описывает контракт хранилища планов.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan models.TrainingPlan) error
	GetPlan(ctx context.Context, id string) (*models.TrainingPlan, error)
	ListPlans(ctx context.Context) ([]*models.TrainingPlan, error)
}

// CatalogCache — кеш каталога планов.
type CatalogCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// PlanService реализует операции над каталогом планов.
type PlanService struct {
	repo  PlanRepository
	cache CatalogCache
	log   *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, cache CatalogCache, log *slog.Logger) *PlanService {
	return &PlanService{repo: repo, cache: cache, log: log}
}

// List возвращает каталог планов, по возможности из кеша.
// Отказ кеша не валит чтение: каталог отдается из хранилища.
func (s *PlanService) List(ctx context.Context) ([]*models.TrainingPlan, error) {
	var cached []*models.TrainingPlan
	found, err := s.cache.Get(ctx, catalogKey, &cached)
	if err != nil {
		s.log.Warn("plan catalog cache read failed", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, catalogKey, plans, catalogTTL); err != nil {
		s.log.Warn("plan catalog cache write failed", sl.Err(err))
	}
	return plans, nil
}

// Get возвращает план по ID.
func (s *PlanService) Get(ctx context.Context, id string) (*models.TrainingPlan, error) {
	return s.repo.GetPlan(ctx, id)
}

// Create добавляет план в каталог и сбрасывает кеш.
// Доступно персоналу с manage_plans; каталог глобален, coach-scope не применяется.
func (s *PlanService) Create(ctx context.Context, actor authz.Actor, plan models.TrainingPlan) error {
	if err := actor.RequireCapability(authz.CapManagePlans, ""); err != nil {
		return err
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, catalogKey); err != nil {
		s.log.Warn("plan catalog cache invalidation failed", sl.Err(err))
	}
	s.log.Info("plan created", slog.String("plan_id", plan.ID))
	return nil
}
