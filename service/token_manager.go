package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/paygate/core"
	"github.com/layer-3/paygate/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultSafetyMargin is subtracted from a token's reported lifetime so that
// a cached token is never presented after the provider considers it expired
const DefaultSafetyMargin = 60 * time.Second

// TokenManager hands out provider bearer tokens, fetching a new one only
// when the cached token has expired
type TokenManager struct {
	source ports.TokenSource
	store  ports.TokenStore
	logger watermill.LoggerAdapter

	safetyMargin time.Duration
	now          func() time.Time
	flight       singleflight.Group
}

// TokenManagerOption configures a TokenManager
type TokenManagerOption func(*TokenManager)

// WithSafetyMargin overrides DefaultSafetyMargin
func WithSafetyMargin(margin time.Duration) TokenManagerOption {
	return func(m *TokenManager) {
		m.safetyMargin = margin
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager creates a token manager caching tokens from source in store
func NewTokenManager(
	source ports.TokenSource,
	store ports.TokenStore,
	logger watermill.LoggerAdapter,
	opts ...TokenManagerOption,
) *TokenManager {
	m := &TokenManager{
		source:       source,
		store:        store,
		logger:       logger,
		safetyMargin: DefaultSafetyMargin,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetToken returns a bearer token that is valid now.
// Concurrent callers that miss the cache share a single fetch.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

// Token is GetToken with the token's cache expiry.
// The shared fetch is detached from ctx so that one caller giving up
// does not fail the others waiting on it.
func (m *TokenManager) Token(ctx context.Context) (core.AccessToken, error) {
	if token, ok := m.cached(ctx, m.now()); ok {
		return token, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := m.flight.DoChan("token", func() (interface{}, error) {
		return m.refresh(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return core.AccessToken{}, res.Err
		}
		return res.Val.(core.AccessToken), nil
	case <-ctx.Done():
		return core.AccessToken{}, fmt.Errorf("%w: %w", core.ErrTokenRequestFailed, ctx.Err())
	}
}

func (m *TokenManager) refresh(ctx context.Context) (core.AccessToken, error) {
	now := m.now()

	// Another flight may have stored a token since our caller looked
	if token, ok := m.cached(ctx, now); ok {
		return token, nil
	}

	grant, err := m.source.FetchToken(ctx)
	if err != nil {
		m.logger.Error("Failed to fetch access token", err, watermill.LogFields{
			"detail": core.ErrorDetail(err),
		})
		return core.AccessToken{}, core.ErrTokenRequestFailed
	}

	token := core.AccessToken{
		Value:     grant.AccessToken,
		ExpiresAt: now.Add(grant.ExpiresIn - m.safetyMargin),
	}
	if err := m.store.Set(ctx, token); err != nil {
		// The token itself is good; only caching failed
		m.logger.Error("Failed to cache access token", err, nil)
	}

	m.logger.Debug("Fetched access token", watermill.LogFields{
		"expires_at": token.ExpiresAt,
	})

	return token, nil
}

func (m *TokenManager) cached(ctx context.Context, now time.Time) (core.AccessToken, bool) {
	token, ok, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Error("Failed to read cached access token", err, nil)
		return core.AccessToken{}, false
	}
	if !ok || !token.ValidAt(now) {
		return core.AccessToken{}, false
	}
	return token, true
}
