package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentRequest is what a caller asks us to collect from a subscriber
type PaymentRequest struct {
	PhoneNumber string              `json:"phoneNumber"` // Subscriber MSISDN, provider format
	Amount      decimal.NullDecimal `json:"amount"`      // Currency implied by configuration
	Reference   string              `json:"reference"`   // Passed through to the provider unmodified
}

// Validate checks that every field is present. Formats are left to the provider.
func (r PaymentRequest) Validate() error {
	switch {
	case r.PhoneNumber == "":
		return fmt.Errorf("%w: phoneNumber is required", ErrInvalidPaymentRequest)
	case !r.Amount.Valid:
		return fmt.Errorf("%w: amount is required", ErrInvalidPaymentRequest)
	case r.Reference == "":
		return fmt.Errorf("%w: reference is required", ErrInvalidPaymentRequest)
	}
	return nil
}

// Subscriber identifies the paying party
type Subscriber struct {
	Country  string `json:"country"`
	Currency string `json:"currency"`
	MSISDN   string `json:"msisdn"`
}

// Transaction describes the amount being collected
type Transaction struct {
	ID       string
	Amount   decimal.Decimal
	Country  string
	Currency string
}

// MarshalJSON encodes the amount as a JSON number rather than a quoted string
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Country  string      `json:"country"`
		Currency string      `json:"currency"`
		ID       string      `json:"id"`
	}{
		Amount:   json.Number(t.Amount.String()),
		Country:  t.Country,
		Currency: t.Currency,
		ID:       t.ID,
	})
}

// PaymentPayload is the body sent to the provider's payment endpoint
type PaymentPayload struct {
	Reference   string      `json:"reference"`
	Subscriber  Subscriber  `json:"subscriber"`
	Transaction Transaction `json:"transaction"`
}

// Market is the static country/currency pair a deployment operates in
type Market struct {
	Country  string
	Currency string
}

// NewPaymentPayload builds the provider payload for req in the given market
func NewPaymentPayload(req PaymentRequest, market Market, transactionID string) PaymentPayload {
	return PaymentPayload{
		Reference: req.Reference,
		Subscriber: Subscriber{
			Country:  market.Country,
			Currency: market.Currency,
			MSISDN:   req.PhoneNumber,
		},
		Transaction: Transaction{
			ID:       transactionID,
			Amount:   req.Amount.Decimal,
			Country:  market.Country,
			Currency: market.Currency,
		},
	}
}
