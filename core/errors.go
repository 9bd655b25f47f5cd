package core

import (
	"errors"
	"fmt"
)

var (
	ErrTokenRequestFailed    = errors.New("token request failed")
	ErrPaymentRequestFailed  = errors.New("payment request failed")
	ErrInvalidPaymentRequest = errors.New("invalid payment request")
)

// ProviderError is a non-2xx response from the provider
type ProviderError struct {
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("provider responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider responded with status %d: %s", e.StatusCode, e.Body)
}

// ErrorDetail returns the most specific description of err available:
// the provider's response body when there is one, otherwise the error text.
func ErrorDetail(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) && len(perr.Body) > 0 {
		return string(perr.Body)
	}
	return err.Error()
}
