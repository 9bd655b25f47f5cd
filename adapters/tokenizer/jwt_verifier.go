package tokenizer

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/paygate/ports"
)

var ErrInvalidCallerToken = errors.New("invalid caller token")

// JWTVerifier authenticates API callers holding an HS256 token signed with a shared secret
type JWTVerifier struct {
	secret   []byte
	audience string
}

// NewJWTVerifier creates a verifier for tokens signed with secret and issued for audience
func NewJWTVerifier(secret []byte, audience string) ports.CallerVerifier {
	return &JWTVerifier{secret: secret, audience: audience}
}

// Verify parses the token, checks signature, expiry and audience, and returns its subject
func (v *JWTVerifier) Verify(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCallerToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidCallerToken
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidCallerToken)
	}

	return claims.Subject, nil
}
