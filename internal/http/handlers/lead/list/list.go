// Package list реализует HTTP-обработчик выборки лидов.
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

// Service описывает интерфейс бизнес-логики выборки лидов.
type Service interface {
	List(ctx context.Context, actor authz.Actor, limit, offset int) ([]*models.Lead, error)
}

// Handler обрабатывает HTTP-запросы на выборку лидов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список лидов
// @Description Возвращает лидов в пределах coach-scope. Неназначенные лиды видны всем с manage_leads.
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response "Лиды"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /leads [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.list"

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

	limit, offset := 20, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	leads, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		log.Error("failed to list leads", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(leads))
}
