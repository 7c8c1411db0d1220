// Package list реализует HTTP-обработчик стаффовой выборки профилей.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/http/middlewarectx"
	"github.com/coachflow/coaching-platform/internal/http/response"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/models"
)

// Service описывает интерфейс бизнес-логики выборки профилей.
type Service interface {
	List(ctx context.Context, actor authz.Actor, filter models.ProfileFilter) ([]*models.SafeProfile, error)
}

// Handler обрабатывает HTTP-запросы на выборку профилей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список профилей
// @Description Возвращает профили, доступные персоналу. admin видит только свой coach-scope.
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Param role query string false "Фильтр по роли"
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response "Профили"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Неизвестная роль в фильтре"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /profiles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.list"

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

	filter := models.ProfileFilter{Limit: 20}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := authz.ParseRole(raw)
		if err != nil {
			log.Error("invalid role filter", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		filter.Role = &role
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			filter.Limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			filter.Offset = v
		}
	}

	profiles, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		log.Error("failed to list profiles", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(profiles))
}
