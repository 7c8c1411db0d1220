// Package update реализует HTTP-обработчик частичного изменения профиля.
//
// Запрос несёт только изменяемые поля; отсутствующее поле не трогается.
// Решение о том, какие поля доступны вызывающей стороне, принимает сервис
// по фактическому состоянию целевой записи.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/http/middlewarectx"
	"github.com/coachflow/coaching-platform/internal/http/response"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/models"
)

// Request — структура входных данных для изменения профиля.
// nil-поле означает «не менять».
type Request struct {
	FullName       *string  `json:"full_name,omitempty"`
	Bio            *string  `json:"bio,omitempty"`
	NutritionNotes *string  `json:"nutrition_notes,omitempty"`
	PlanID         *string  `json:"plan_id,omitempty"`
	Role           *string  `json:"role,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
}

// Service описывает интерфейс бизнес-логики изменения профиля.
type Service interface {
	Update(ctx context.Context, actor authz.Actor, uid string, upd models.ProfileUpdate) (*models.SafeProfile, error)
}

// Handler обрабатывает HTTP-запросы на изменение профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Частичное изменение профиля
// @Description Применяет только присланные поля. Роль и права меняет super_admin или admin с manage_admins в своём scope.
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID профиля"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновлённый профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 422 {object} response.ErrorResponse "Неизвестная роль или право"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /profiles/{uid} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFromContext(r.Context())
	if !ok {
		log.Error("actor missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired token"))
		return
	}

	uid := chi.URLParam(r, "uid")
	if uid == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("profile uid is required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	upd := models.ProfileUpdate{
		FullName:       req.FullName,
		Bio:            req.Bio,
		NutritionNotes: req.NutritionNotes,
		PlanID:         req.PlanID,
	}
	if req.Role != nil {
		role, err := authz.ParseRole(*req.Role)
		if err != nil {
			log.Error("invalid role", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		upd.Role = &role
	}
	if req.Permissions != nil {
		caps := make([]authz.Capability, 0, len(req.Permissions))
		for _, p := range req.Permissions {
			cap, err := authz.ParseCapability(p)
			if err != nil {
				log.Error("invalid capability", sl.Err(err))
				response.Fail(w, r, err)
				return
			}
			caps = append(caps, cap)
		}
		upd.Permissions = caps
	}

	profile, err := h.service.Update(r.Context(), actor, uid, upd)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("profile updated", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(profile))
}
