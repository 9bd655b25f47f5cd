package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/paygate/core"
	"github.com/layer-3/paygate/ports"
)

// TokenProvider supplies bearer tokens for outbound provider calls
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// PaymentService initiates payments with the provider
type PaymentService struct {
	tokens   TokenProvider
	gateway  ports.PaymentGateway
	ids      ports.TransactionIDGenerator
	eventPub ports.EventPublisher
	logger   watermill.LoggerAdapter

	market core.Market
}

// NewPaymentService creates a new payment service operating in market
func NewPaymentService(
	tokens TokenProvider,
	gateway ports.PaymentGateway,
	ids ports.TransactionIDGenerator,
	eventPub ports.EventPublisher,
	logger watermill.LoggerAdapter,
	market core.Market,
) *PaymentService {
	return &PaymentService{
		tokens:   tokens,
		gateway:  gateway,
		ids:      ids,
		eventPub: eventPub,
		logger:   logger,
		market:   market,
	}
}

// Initiate sends a single payment request to the provider and returns its response verbatim.
// Provider error details are logged, never returned.
func (s *PaymentService) Initiate(ctx context.Context, req core.PaymentRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := s.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := core.NewPaymentPayload(req, s.market, s.ids.NewID())
	fields := watermill.LogFields{
		"reference":      payload.Reference,
		"transaction_id": payload.Transaction.ID,
	}

	res, err := s.gateway.SubmitPayment(ctx, token, payload)
	if err != nil {
		s.logger.Error("Payment failed", err, fields.Add(watermill.LogFields{
			"detail": core.ErrorDetail(err),
		}))

		if err := s.eventPub.PublishPaymentFailed(ctx, payload, core.ErrPaymentRequestFailed.Error()); err != nil {
			// The caller still gets the payment failure
			s.logger.Error("Failed to publish payment failed event", err, fields)
		}

		return nil, core.ErrPaymentRequestFailed
	}

	s.logger.Info("Payment initiated", fields)

	if err := s.eventPub.PublishPaymentInitiated(ctx, payload); err != nil {
		// The provider already accepted the payment; don't fail the request
		s.logger.Error("Failed to publish payment initiated event", err, fields)
	}

	return res, nil
}
