// Package create реализует HTTP-обработчик добавления тарифного плана.
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
	"github.com/coachflow/coaching-platform/internal/models"
)

// Request — структура входных данных для добавления плана.
type Request struct {
	ID             string   `json:"id" validate:"required,min=3,max=64"`
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Price          int      `json:"price" validate:"required,gt=0"`
	DurationMonths int      `json:"duration_months" validate:"required,gt=0"`
	Features       []string `json:"features"`
}

// Service описывает интерфейс бизнес-логики добавления плана.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, plan models.TrainingPlan) error
}

// Handler обрабатывает HTTP-запросы на добавление плана.
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
// @Summary Добавление тарифного плана
// @Description Добавляет план в каталог. Требует manage_plans.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные плана"
// @Success 201 {object} response.Response "Созданный план"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} response.ErrorResponse "План уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.create"

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

	plan := models.TrainingPlan{
		ID:             req.ID,
		Name:           req.Name,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Features:       req.Features,
	}
	if err := h.service.Create(r.Context(), actor, plan); err != nil {
		log.Error("failed to create plan", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("plan created", slog.String("plan_id", plan.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(plan))
}
