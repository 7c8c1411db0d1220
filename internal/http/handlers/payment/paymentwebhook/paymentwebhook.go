// Package paymentwebhook реализует HTTP-обработчик вебхуков платёжного
// процессора.
//
// Подлинность запроса проверяется HMAC-SHA256 подписью сырого тела в
// заголовке X-Processor-Signature. После успешной сверки всегда возвращается
// 200: процессор перестаёт доставлять событие повторно. Ошибкой отвечаем
// только на отказ хранилища, чтобы получить повторную доставку.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/coachflow/coaching-platform/internal/http/response"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/paymentprovider"
)

// SignatureHeader — заголовок с HMAC-подписью тела вебхука.
const SignatureHeader = "X-Processor-Signature"

// maxBodySize ограничивает размер тела вебхука.
const maxBodySize = 1 << 20

// Service описывает интерфейс бизнес-логики сверки вебхуков.
type Service interface {
	Reconcile(ctx context.Context, event paymentprovider.WebhookEvent) error
}

// Handler обрабатывает вебхуки платёжного процессора.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ServeHTTP godoc
// @Summary Вебхук платёжного процессора
// @Description Идемпотентно применяет событие оплаты к профилю покупателя.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Processor-Signature header string true "HMAC-SHA256 подпись тела"
// @Success 200 {object} response.Response "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Отказ хранилища, требуется повторная доставка"
// @Router /payment-webhooks [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if h.webhookSecret == "" || !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		log.Error("webhook signature verification failed")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.Reconcile(r.Context(), event); err != nil {
		log.Error("failed to reconcile webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("webhook processed", slog.String("event", event.Event))
	render.JSON(w, r, response.OKWithData(nil))
}
