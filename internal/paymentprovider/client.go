// Package paymentprovider реализует клиент внешнего платёжного процессора:
// создание размещённых страниц оплаты и типы его вебхук-событий.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coachflow/coaching-platform/internal/apperr"
)

// Client — HTTP-клиент платёжного процессора с ограниченным таймаутом.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиента процессора. Таймаут ограничивает каждый запрос;
// его истечение наружу уходит как UpstreamPaymentError.
func NewClient(secretKey, apiURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateCheckout запрашивает у процессора размещённую страницу оплаты.
//
// Отсутствующие учётные данные и любой сбой транспорта или не-2xx ответ
// возвращаются как UpstreamPaymentError: это инфраструктурный отказ,
// отличимый от бизнес-валидации вызывающей стороны.
func (c *Client) CreateCheckout(ctx context.Context, reqParams CreateCheckoutRequest) (*CreateCheckoutResponse, error) {
	const op = "paymentprovider.CreateCheckout"

	if c.secretKey == "" || c.apiURL == "" {
		return nil, apperr.New(apperr.KindUpstreamPayment, "payment provider is not configured")
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamPayment, "payment provider unreachable", fmt.Errorf("%s: %w", op, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperr.New(apperr.KindUpstreamPayment, "payment provider error: "+resp.Status)
	}

	var checkoutResp CreateCheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&checkoutResp); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamPayment, "payment provider returned malformed response", fmt.Errorf("%s: %w", op, err))
	}
	return &checkoutResp, nil
}
