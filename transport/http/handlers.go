package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/paygate/core"
)

// PaymentInitiator is the core operation behind the payment endpoint
type PaymentInitiator interface {
	Initiate(ctx context.Context, req core.PaymentRequest) (json.RawMessage, error)
}

// PaymentHandlers contains HTTP handlers for payment endpoints
type PaymentHandlers struct {
	payments PaymentInitiator
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(payments PaymentInitiator) *PaymentHandlers {
	return &PaymentHandlers{
		payments: payments,
	}
}

// Pay handles the payment initiation request
func (h *PaymentHandlers) Pay(c *gin.Context) {
	var req core.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.payments.Initiate(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Payment request failed"

		switch {
		case errors.Is(err, core.ErrInvalidPaymentRequest):
			statusCode = http.StatusBadRequest
			errorMsg = err.Error()
		case errors.Is(err, core.ErrTokenRequestFailed):
			errorMsg = "Token request failed"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	if len(res) == 0 {
		c.Status(http.StatusOK)
		return
	}
	// The provider body is forwarded byte for byte, even when it is not JSON.
	c.Data(http.StatusOK, "application/json; charset=utf-8", res)
}

// Health reports that the service is up
func (h *PaymentHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "paygate is running")
}
