// Package capture реализует публичный HTTP-обработчик захвата лида.
//
// Единственная операция платформы, доступная без токена наряду со входом
// и каталогом планов: формы сайта и чат-виджет отправляют сюда контакты.
package capture

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/coachflow/coaching-platform/internal/http/response"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/services/lead"
)

// Request — структура входных данных для захвата лида.
type Request struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone" validate:"omitempty,max=32"`
	Goal   string `json:"goal" validate:"omitempty,max=500"`
	Source string `json:"source" validate:"required"`
}

// Service описывает интерфейс бизнес-логики захвата лида.
type Service interface {
	Capture(ctx context.Context, req lead.CaptureRequest) (int, error)
}

// Handler обрабатывает HTTP-запросы захвата лида.
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
// @Summary Захват лида
// @Description Создаёт лида в состоянии New. Повторный email отклоняется.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body Request true "Контакты лида"
// @Success 201 {object} response.Response "ID созданного лида"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или неизвестный источник"
// @Failure 409 {object} response.ErrorResponse "Лид с таким email уже есть"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /leads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.capture"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	id, err := h.service.Capture(r.Context(), lead.CaptureRequest{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Goal:   req.Goal,
		Source: req.Source,
	})
	if err != nil {
		log.Error("failed to capture lead", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("lead captured", slog.Int("id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}
