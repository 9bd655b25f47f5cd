package ports

import (
	"context"

	"github.com/layer-3/paygate/core"
)

// EventPublisher publishes payment lifecycle events for other services
type EventPublisher interface {
	PublishPaymentInitiated(ctx context.Context, payload core.PaymentPayload) error
	PublishPaymentFailed(ctx context.Context, payload core.PaymentPayload, reason string) error
}
