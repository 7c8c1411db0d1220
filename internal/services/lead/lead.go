// Package lead реализует жизненный цикл лида: захват, продвижение статуса
// и единственную одностороннюю конверсию в профиль участника.
package lead

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/lib/password"
	"github.com/coachflow/coaching-platform/internal/models"
	"github.com/coachflow/coaching-platform/internal/rabbitmq"
)

// LeadRepository описывает контракт хранилища лидов.
type LeadRepository interface {
	// CreateLead сохраняет лида и возвращает его ID; дубликат email — ConflictError.
	CreateLead(ctx context.Context, lead models.Lead) (int, error)
	// GetLead возвращает лида по ID или NotFoundError.
	GetLead(ctx context.Context, id int) (*models.Lead, error)
	// ListLeads возвращает лидов; непустой coachUID ограничивает выборку.
	ListLeads(ctx context.Context, coachUID string, limit, offset int) ([]*models.Lead, error)
	// AdvanceLead переводит лида в новое состояние.
	AdvanceLead(ctx context.Context, id int, status models.LeadStatus, coachUID string) error
	// ConvertLead атомарно закрывает лида и создаёт профиль участника.
	ConvertLead(ctx context.Context, id int, profile models.Profile) (*models.Profile, error)
}

// LeadService реализует операции над лидами.
type LeadService struct {
	repo      LeadRepository
	hasher    *password.Hasher
	publisher rabbitmq.Publisher
	log       *slog.Logger
}

// NewLeadService создает новый экземпляр LeadService.
func NewLeadService(repo LeadRepository, hasher *password.Hasher, publisher rabbitmq.Publisher, log *slog.Logger) *LeadService {
	return &LeadService{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		log:       log,
	}
}

// CaptureRequest — данные публичного захвата лида.
type CaptureRequest struct {
	Name   string
	Email  string
	Phone  string
	Goal   string
	Source string
}

// Capture создает лида в состоянии New.
// Повторный захват email отклоняется ConflictError независимо от того,
// существует ли профиль с этим адресом.
func (s *LeadService) Capture(ctx context.Context, req CaptureRequest) (int, error) {
	source, err := models.ParseLeadSource(req.Source)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateLead(ctx, models.Lead{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Goal:   req.Goal,
		Source: source,
		Status: models.LeadNew,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("lead captured", slog.Int("id", id), slog.String("source", req.Source))
	return id, nil
}

// List возвращает лидов в пределах coach-scope актора.
func (s *LeadService) List(ctx context.Context, actor authz.Actor, limit, offset int) ([]*models.Lead, error) {
	if !actor.Allows(authz.CapManageLeads) {
		return nil, apperr.New(apperr.KindAuthorization, "insufficient permissions")
	}
	scope, _ := actor.CoachScope()
	return s.repo.ListLeads(ctx, scope, limit, offset)
}

// Advance переводит лида строго вперёд по порядку состояний.
// Состояние Closed недостижимо продвижением: только конверсией.
func (s *LeadService) Advance(ctx context.Context, actor authz.Actor, id int, newStatus string) error {
	status, err := models.ParseLeadStatus(newStatus)
	if err != nil {
		return err
	}
	if status.Terminal() {
		return apperr.New(apperr.KindValidation, "lead can only be closed by conversion")
	}

	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return err
	}
	if err := actor.RequireCapability(authz.CapManageLeads, lead.CoachUID()); err != nil {
		return err
	}
	if !lead.Status.CanAdvanceTo(status) {
		return apperr.New(apperr.KindValidation,
			fmt.Sprintf("lead status can only move forward: %s -> %s is not allowed", lead.Status, status))
	}

	if err := s.repo.AdvanceLead(ctx, id, status, actor.UID); err != nil {
		return err
	}
	s.log.Info("lead advanced", slog.Int("id", id), slog.String("status", string(status)))
	return nil
}

// ConvertResult — результат конверсии лида.
type ConvertResult struct {
	Profile *models.SafeProfile
	// TempPassword выдаётся один раз, чтобы оператор передал его участнику.
	TempPassword string
}

// Convert закрывает лида и создает из него профиль участника со сгенерированным
// временным паролем. Вся операция атомарна на уровне хранилища: коллизия email
// профиля оставляет лида в прежнем состоянии и даёт ConflictError.
func (s *LeadService) Convert(ctx context.Context, actor authz.Actor, id int) (*ConvertResult, error) {
	const op = "lead.Convert"

	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireCapability(authz.CapManageLeads, lead.CoachUID()); err != nil {
		return nil, err
	}
	if lead.Status.Terminal() {
		return nil, apperr.New(apperr.KindConflict, "lead already converted")
	}

	tempPassword := uuid.NewString()
	hashed, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	coachUID := lead.AssignedCoachUID
	if coachUID == nil && actor.Role == authz.RoleAdmin {
		uid := actor.UID
		coachUID = &uid
	}

	created, err := s.repo.ConvertLead(ctx, id, models.Profile{
		Email:            lead.Email,
		FullName:         lead.Name,
		PasswordHash:     hashed,
		Role:             authz.RoleMember,
		AssignedCoachUID: coachUID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lead converted", slog.Int("lead_id", id), slog.String("profile_uid", created.UID))
	if err := s.publisher.Publish(rabbitmq.RouteLeadConverted, rabbitmq.LeadConvertedEvent{
		LeadID:     id,
		ProfileUID: created.UID,
		Email:      created.Email,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.log.Warn("failed to publish lead.converted event", slog.Any("err", err))
	}

	safe := created.Safe()
	return &ConvertResult{Profile: &safe, TempPassword: tempPassword}, nil
}
