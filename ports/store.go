package ports

import (
	"context"

	"github.com/layer-3/paygate/core"
)

// TokenStore holds the single cached provider token
type TokenStore interface {
	Get(ctx context.Context) (core.AccessToken, bool, error)
	Set(ctx context.Context, token core.AccessToken) error
}
