// Package update реализует HTTP-обработчик изменения лида: продвижение
// статуса или конверсию в профиль участника.
//
// Тело запроса несёт либо {"status": "..."} для продвижения вперёд,
// либо {"convert": true} для конверсии. Одновременно оба поля не допускаются.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/http/middlewarectx"
	"github.com/coachflow/coaching-platform/internal/http/response"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/services/lead"
)

// Request — структура входных данных для изменения лида.
type Request struct {
	Status  string `json:"status,omitempty"`
	Convert bool   `json:"convert,omitempty"`
}

// Service описывает интерфейс бизнес-логики изменения лида.
type Service interface {
	Advance(ctx context.Context, actor authz.Actor, id int, newStatus string) error
	Convert(ctx context.Context, actor authz.Actor, id int) (*lead.ConvertResult, error)
}

// Handler обрабатывает HTTP-запросы на изменение лида.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Продвижение или конверсия лида
// @Description Переводит лида вперёд по статусам либо конвертирует его в профиль участника. Временный пароль возвращается один раз.
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID лида"
// @Param request body Request true "Новый статус или признак конверсии"
// @Success 200 {object} response.Response "Результат операции"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав или чужой scope"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 409 {object} response.ErrorResponse "Лид уже закрыт или email занят"
// @Failure 422 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /leads/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.update"

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

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid lead id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid lead id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	switch {
	case req.Convert && req.Status != "":
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("status and convert are mutually exclusive"))
		return
	case req.Convert:
		result, err := h.service.Convert(r.Context(), actor, id)
		if err != nil {
			log.Error("failed to convert lead", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		log.Info("lead converted", slog.Int("id", id), slog.String("profile_uid", result.Profile.UID))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"profile":       result.Profile,
			"temp_password": result.TempPassword,
		}))
	case req.Status != "":
		if err := h.service.Advance(r.Context(), actor, id, req.Status); err != nil {
			log.Error("failed to advance lead", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		log.Info("lead advanced", slog.Int("id", id), slog.String("status", req.Status))
		render.JSON(w, r, response.OKWithData(map[string]any{"id": id, "status": req.Status}))
	default:
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("either status or convert is required"))
	}
}
