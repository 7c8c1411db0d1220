package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

const (
	// EventsExchange — exchange доменных событий платформы.
	EventsExchange = "platform.events"
	// RouteLeadConverted — ключ маршрутизации события конверсии лида.
	RouteLeadConverted = "lead.converted"
	// RouteEntitlementApplied — ключ маршрутизации события применения оплаты.
	RouteEntitlementApplied = "entitlement.applied"
)

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetEventQueues перечисляет очереди, которые читает пайплайн уведомлений.
func GetEventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.lead-converted", RoutingKey: RouteLeadConverted},
		{QueueName: "notification.entitlement-applied", RoutingKey: RouteEntitlementApplied},
	}
}

// LeadConvertedEvent публикуется при конверсии лида в профиль участника.
type LeadConvertedEvent struct {
	LeadID     int       `json:"lead_id"`
	ProfileUID string    `json:"profile_uid"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EntitlementAppliedEvent публикуется при реальном изменении плана профиля.
type EntitlementAppliedEvent struct {
	Email      string    `json:"email"`
	PlanID     string    `json:"plan_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher публикует события в exchange платформы.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// ChannelPublisher — реализация Publisher поверх канала AMQP.
type ChannelPublisher struct {
	ch *amqp.Channel
}

// NewPublisher создает ChannelPublisher.
func NewPublisher(ch *amqp.Channel) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish сериализует message в JSON и публикует его персистентно.
func (p *ChannelPublisher) Publish(routingKey string, message any) error {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
