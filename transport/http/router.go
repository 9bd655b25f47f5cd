package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/paygate/ports"
)

// SetupRouter sets up the Gin router. A nil verifier leaves the API open.
func SetupRouter(payments PaymentInitiator, verifier ports.CallerVerifier) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware())

	// Create handlers
	handlers := NewPaymentHandlers(payments)

	router.GET("/", handlers.Health)

	api := router.Group("/api")
	if verifier != nil {
		api.Use(AuthMiddleware(verifier))
	}
	{
		api.POST("/pay", handlers.Pay)
	}

	return router
}
