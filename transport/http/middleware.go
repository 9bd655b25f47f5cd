package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/paygate/ports"
	"github.com/rs/cors"
)

// CallerKey is the gin context key holding the authenticated caller
const CallerKey = "caller"

// AuthMiddleware creates middleware that requires a valid caller token
func AuthMiddleware(verifier ports.CallerVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		subject, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(CallerKey, subject)

		c.Next()
	}
}

// CORSMiddleware allows cross-origin requests from any origin
func CORSMiddleware() gin.HandlerFunc {
	policy := cors.AllowAll()

	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
