// Package payment оркестрирует оплату: создание checkout-сессий у внешнего
// процессора и идемпотентную сверку его вебхуков с профилями.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/coachflow/coaching-platform/internal/config"
	"github.com/coachflow/coaching-platform/internal/lib/sl"
	"github.com/coachflow/coaching-platform/internal/models"
	"github.com/coachflow/coaching-platform/internal/paymentprovider"
	"github.com/coachflow/coaching-platform/internal/rabbitmq"
)

// ProviderClient описывает контракт клиента платёжного процессора.
type ProviderClient interface {
	CreateCheckout(ctx context.Context, req paymentprovider.CreateCheckoutRequest) (*paymentprovider.CreateCheckoutResponse, error)
}

// PlanReader загружает план, который собираются оплатить.
type PlanReader interface {
	GetPlan(ctx context.Context, id string) (*models.TrainingPlan, error)
}

// EntitlementStore применяет результат оплаты к профилю.
type EntitlementStore interface {
	// ApplyEntitlement возвращает true, только если профиль реально изменился.
	ApplyEntitlement(ctx context.Context, email, planID, customerID string) (bool, error)
	// FindProcessorCustomerID возвращает известный идентификатор покупателя.
	FindProcessorCustomerID(ctx context.Context, email string) (string, bool, error)
}

// PaymentService реализует checkout и сверку вебхуков.
type PaymentService struct {
	provider  ProviderClient
	plans     PlanReader
	store     EntitlementStore
	publisher rabbitmq.Publisher
	cfg       config.PaymentProvider
	log       *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(provider ProviderClient, plans PlanReader, store EntitlementStore,
	publisher rabbitmq.Publisher, cfg config.PaymentProvider, log *slog.Logger) *PaymentService {
	return &PaymentService{
		provider:  provider,
		plans:     plans,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// CreateCheckout создаёт у процессора страницу оплаты выбранного плана.
//
// Сумма и описание берутся из каталога, а не из запроса. В metadata кладутся
// plan_id и buyer_email: по ним вебхук сверяется с профилем. Известный
// идентификатор покупателя подкладывается best-effort: его отсутствие
// не мешает оплате.
func (s *PaymentService) CreateCheckout(ctx context.Context, buyerEmail, planID string) (string, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return "", err
	}

	email := buyerEmail
	customerID, found, err := s.store.FindProcessorCustomerID(ctx, email)
	if err != nil {
		s.log.Warn("customer id lookup failed", sl.Err(err))
	}
	if !found {
		customerID = ""
	}

	resp, err := s.provider.CreateCheckout(ctx, paymentprovider.CreateCheckoutRequest{
		Amount:        paymentprovider.Amount{Value: plan.Price, Currency: "USD"},
		Description:   plan.Name,
		CustomerEmail: email,
		CustomerID:    customerID,
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
		Metadata: map[string]string{
			"plan_id":     plan.ID,
			"buyer_email": email,
		},
	})
	if err != nil {
		return "", err
	}

	s.log.Info("checkout session created",
		slog.String("session_id", resp.ID),
		slog.String("plan_id", plan.ID))
	return resp.RedirectURL, nil
}

// Reconcile применяет вебхук процессора к профилю покупателя.
//
// Операция идемпотентна: повторная доставка того же события не меняет
// профиль и не публикует событие. Ошибку возвращает только отказ хранилища —
// в этом случае процессор доставит вебхук повторно. Все остальные исходы,
// включая неизвестный email и событие до регистрации профиля, подтверждаются
// молча: вебхук не отвергается из-за данных, которых у платформы ещё нет.
func (s *PaymentService) Reconcile(ctx context.Context, event paymentprovider.WebhookEvent) error {
	if event.Event != paymentprovider.EventCheckoutCompleted {
		s.log.Debug("webhook event ignored", slog.String("event", event.Event))
		return nil
	}

	email := event.Object.Metadata["buyer_email"]
	if email == "" {
		email = event.Object.CustomerEmail
	}
	planID := event.Object.Metadata["plan_id"]
	if email == "" || planID == "" {
		s.log.Warn("webhook missing reconciliation data",
			slog.String("session_id", event.Object.ID))
		return nil
	}

	changed, err := s.store.ApplyEntitlement(ctx, email, planID, event.Object.CustomerID)
	if err != nil {
		return err
	}
	if !changed {
		s.log.Debug("webhook already reconciled", slog.String("session_id", event.Object.ID))
		return nil
	}

	s.log.Info("entitlement applied",
		slog.String("plan_id", planID),
		slog.String("session_id", event.Object.ID))
	if err := s.publisher.Publish(rabbitmq.RouteEntitlementApplied, rabbitmq.EntitlementAppliedEvent{
		Email:      email,
		PlanID:     planID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.log.Warn("failed to publish entitlement.applied event", sl.Err(err))
	}
	return nil
}
