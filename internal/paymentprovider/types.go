package paymentprovider

// CreateCheckoutRequest — запрос на создание размещённой страницы оплаты.
type CreateCheckoutRequest struct {
	Amount        Amount            `json:"amount"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email"`
	CustomerID    string            `json:"customer_id,omitempty"` // Известный покупатель, если есть
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"` // plan_id и buyer_email для сверки по вебхуку
}

// Amount — сумма в минимальных единицах валюты.
type Amount struct {
	Value    int    `json:"value"`
	Currency string `json:"currency"`
}

// CreateCheckoutResponse — ответ провайдера с адресом страницы оплаты.
type CreateCheckoutResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
}

// WebhookEvent — асинхронное событие провайдера о завершении оплаты.
// Может доставляться повторно любое число раз для одного логического события.
type WebhookEvent struct {
	Event  string `json:"event"`
	Object struct {
		ID            string            `json:"id"`
		Status        string            `json:"status"`
		CustomerID    string            `json:"customer_id"`
		CustomerEmail string            `json:"customer_email"`
		Amount        Amount            `json:"amount"`
		Metadata      map[string]string `json:"metadata"`
	} `json:"object"`
}

// EventCheckoutCompleted — единственное событие, которое сверяет платформа.
const EventCheckoutCompleted = "checkout.completed"
