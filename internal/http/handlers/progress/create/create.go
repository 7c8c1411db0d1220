// Package create реализует HTTP-обработчик записи замера участника.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/http/middlewarectx"
	"github.com/coachflow/coaching-platform/internal/http/response"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/services/progress"
)

// Request — структура входных данных для записи замера.
// Коуч и время замера в запросе не передаются: коуч берётся из токена,
// время — серверное.
type Request struct {
	MemberUID        string  `json:"member_uid" validate:"required,uuid"`
	WeightKG         float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	BodyFatPct       float64 `json:"body_fat_pct" validate:"omitempty,gt=0"`
	PerformanceScore int     `json:"performance_score" validate:"omitempty,gt=0"`
}

// Service описывает интерфейс бизнес-логики записи замера.
type Service interface {
	Record(ctx context.Context, actor authz.Actor, req progress.RecordRequest) (int, error)
}

// Handler обрабатывает HTTP-запросы на запись замера.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запись замера участника
// @Description Добавляет неизменяемый замер. Требует manage_progress в пределах coach-scope.
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные замера"
// @Success 201 {object} response.Response "ID созданного замера"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 422 {object} response.ErrorResponse "Замер не для участника"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /progress [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.create"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Record(r.Context(), actor, progress.RecordRequest{
		MemberUID:        req.MemberUID,
		WeightKG:         req.WeightKG,
		BodyFatPct:       req.BodyFatPct,
		PerformanceScore: req.PerformanceScore,
	})
	if err != nil {
		log.Error("failed to record progress", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("progress recorded", slog.Int("id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}
