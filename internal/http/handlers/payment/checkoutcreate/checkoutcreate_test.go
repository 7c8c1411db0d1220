package checkoutcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/coachflow/coaching-platform/internal/apperr"
)

type PaymentServiceMock struct {
	mock.Mock
}

func (m *PaymentServiceMock) CreateCheckout(ctx context.Context, buyerEmail, planID string) (string, error) {
	args := m.Called(ctx, buyerEmail, planID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/checkout-sessions", bytes.NewReader(bodyBytes))
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	return req.WithContext(ctx)
}

func TestCheckoutCreateHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           Request
		mockURL        string
		mockErr        error
		useMock        bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "успешное создание",
			body:           Request{PlanID: "plan_performance", BuyerEmail: "member@x.com"},
			mockURL:        "https://pay.processor.test/cs_123",
			useMock:        true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "нет плана в запросе",
			body:           Request{BuyerEmail: "member@x.com"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field PlanID is a required field",
		},
		{
			name:           "невалидный email покупателя",
			body:           Request{PlanID: "plan_basic", BuyerEmail: "not-an-email"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field BuyerEmail must be a valid email",
		},
		{
			name:           "неизвестный план",
			body:           Request{PlanID: "plan_ghost", BuyerEmail: "member@x.com"},
			mockErr:        apperr.New(apperr.KindNotFound, "plan not found"),
			useMock:        true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "plan not found",
		},
		{
			name:           "процессор недоступен",
			body:           Request{PlanID: "plan_basic", BuyerEmail: "member@x.com"},
			mockErr:        apperr.New(apperr.KindUpstreamPayment, "payment provider unreachable"),
			useMock:        true,
			wantStatusCode: http.StatusBadGateway,
			wantError:      "payment provider unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcMock := new(PaymentServiceMock)
			if tt.useMock {
				svcMock.On("CreateCheckout", mock.Anything, tt.body.BuyerEmail, tt.body.PlanID).
					Return(tt.mockURL, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svcMock)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(t, tt.body))

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, tt.mockURL, data["redirect_url"])
			}
			svcMock.AssertExpectations(t)
		})
	}
}
