package ports

import (
	"context"
	"encoding/json"

	"github.com/layer-3/paygate/core"
)

// TokenSource requests new bearer tokens from the provider
type TokenSource interface {
	FetchToken(ctx context.Context) (core.Grant, error)
}

// PaymentGateway submits payment requests to the provider
type PaymentGateway interface {
	// SubmitPayment sends payload once and returns the provider's response body verbatim
	SubmitPayment(ctx context.Context, token string, payload core.PaymentPayload) (json.RawMessage, error)
}

// TransactionIDGenerator produces identifiers for outgoing transactions
type TransactionIDGenerator interface {
	NewID() string
}
