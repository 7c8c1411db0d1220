// Package checkoutcreate реализует HTTP-обработчик создания checkout-сессии
// у платёжного процессора.
package checkoutcreate

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
)

// Request — структура входных данных для создания checkout-сессии.
// Сумма в запросе не передаётся: цена берётся из каталога планов.
// Email покупателя приходит в теле: оплата доступна и до регистрации.
type Request struct {
	PlanID     string `json:"plan_id" validate:"required,min=3,max=64"`
	BuyerEmail string `json:"buyer_email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики создания checkout-сессии.
type Service interface {
	CreateCheckout(ctx context.Context, buyerEmail, planID string) (string, error)
}

// Handler обрабатывает HTTP-запросы на создание checkout-сессии.
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
// @Summary Создание checkout-сессии
// @Description Создаёт у процессора страницу оплаты выбранного плана и возвращает адрес редиректа.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body Request true "План и email покупателя"
// @Success 200 {object} response.Response "Адрес страницы оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Платёжный процессор недоступен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /checkout-sessions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkoutcreate"

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

	redirectURL, err := h.service.CreateCheckout(r.Context(), req.BuyerEmail, req.PlanID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("checkout session created", slog.String("plan_id", req.PlanID))
	render.JSON(w, r, response.OKWithData(map[string]any{"redirect_url": redirectURL}))
}
