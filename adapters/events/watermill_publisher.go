package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/paygate/core"
	"github.com/layer-3/paygate/ports"
)

const (
	TopicPaymentInitiated = "paygate.payment.initiated"
	TopicPaymentFailed    = "paygate.payment.failed"
)

// PaymentInitiatedEvent is published when the provider accepted a payment request
type PaymentInitiatedEvent struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	MSISDN        string `json:"msisdn"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Country       string `json:"country"`
}

// PaymentFailedEvent is published when the provider rejected or never received a payment request
type PaymentFailedEvent struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishPaymentInitiated publishes a payment initiated event
func (p *WatermillPublisher) PublishPaymentInitiated(ctx context.Context, payload core.PaymentPayload) error {
	return p.publish(ctx, TopicPaymentInitiated, payload.Transaction.ID, PaymentInitiatedEvent{
		Reference:     payload.Reference,
		TransactionID: payload.Transaction.ID,
		MSISDN:        payload.Subscriber.MSISDN,
		Amount:        payload.Transaction.Amount.String(),
		Currency:      payload.Transaction.Currency,
		Country:       payload.Transaction.Country,
	})
}

// PublishPaymentFailed publishes a payment failed event
func (p *WatermillPublisher) PublishPaymentFailed(ctx context.Context, payload core.PaymentPayload, reason string) error {
	return p.publish(ctx, TopicPaymentFailed, payload.Transaction.ID, PaymentFailedEvent{
		Reference:     payload.Reference,
		TransactionID: payload.Transaction.ID,
		Reason:        reason,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, id string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
