package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/paygate/adapters/store"
	"github.com/layer-3/paygate/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out grants from FetchFunc and counts calls
type fakeSource struct {
	mu        sync.Mutex
	calls     int
	FetchFunc func(call int) (core.Grant, error)
}

func (f *fakeSource) FetchToken(ctx context.Context) (core.Grant, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	return f.FetchFunc(call)
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func grantOf(value string, lifetime time.Duration) func(int) (core.Grant, error) {
	return func(int) (core.Grant, error) {
		return core.Grant{AccessToken: value, ExpiresIn: lifetime}, nil
	}
}

func newTestTokenManager(source *fakeSource, clock *fakeClock) *TokenManager {
	return NewTokenManager(source, store.NewMemoryStore(), watermill.NopLogger{}, WithClock(clock.Now))
}

func TestGetToken_FirstCallFetchesOnce(t *testing.T) {
	source := &fakeSource{FetchFunc: grantOf("abc", time.Hour)}
	m := newTestTokenManager(source, &fakeClock{now: t0})

	token, err := m.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc", token)
	assert.Equal(t, 1, source.Calls())
}

func TestGetToken_CacheValidity(t *testing.T) {
	const lifetime = 3600 * time.Second

	source := &fakeSource{FetchFunc: func(call int) (core.Grant, error) {
		if call == 1 {
			return core.Grant{AccessToken: "first", ExpiresIn: lifetime}, nil
		}
		return core.Grant{AccessToken: "second", ExpiresIn: lifetime}, nil
	}}
	clock := &fakeClock{now: t0}
	m := newTestTokenManager(source, clock)
	ctx := context.Background()

	_, err := m.GetToken(ctx)
	require.NoError(t, err)

	clock.Set(t0.Add(lifetime - 61*time.Second))
	token, err := m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", token)
	assert.Equal(t, 1, source.Calls(), "token inside its safety margin must come from the cache")

	clock.Set(t0.Add(lifetime - 59*time.Second))
	token, err = m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)
	assert.Equal(t, 2, source.Calls())
}

func TestGetToken_FailureIsNotCached(t *testing.T) {
	source := &fakeSource{FetchFunc: func(call int) (core.Grant, error) {
		if call == 1 {
			return core.Grant{}, &core.ProviderError{StatusCode: 401, Body: []byte(`{"error":"invalid_client"}`)}
		}
		return core.Grant{AccessToken: "abc", ExpiresIn: time.Hour}, nil
	}}
	m := newTestTokenManager(source, &fakeClock{now: t0})
	ctx := context.Background()

	_, err := m.GetToken(ctx)
	require.ErrorIs(t, err, core.ErrTokenRequestFailed)
	assert.NotContains(t, err.Error(), "invalid_client")

	token, err := m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
	assert.Equal(t, 2, source.Calls())
}

func TestGetToken_FailureLeavesStaleEntryUntouched(t *testing.T) {
	source := &fakeSource{FetchFunc: func(call int) (core.Grant, error) {
		if call == 1 {
			return core.Grant{AccessToken: "stale", ExpiresIn: 120 * time.Second}, nil
		}
		return core.Grant{}, errors.New("connection reset")
	}}
	clock := &fakeClock{now: t0}
	tokens := store.NewMemoryStore()
	m := NewTokenManager(source, tokens, watermill.NopLogger{}, WithClock(clock.Now))
	ctx := context.Background()

	_, err := m.GetToken(ctx)
	require.NoError(t, err)

	clock.Set(t0.Add(61 * time.Second))
	_, err = m.GetToken(ctx)
	require.ErrorIs(t, err, core.ErrTokenRequestFailed)

	cached, ok, err := tokens.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stale", cached.Value)
	assert.Equal(t, t0.Add(60*time.Second), cached.ExpiresAt)
}

func TestGetToken_LifetimeShorterThanMargin(t *testing.T) {
	source := &fakeSource{FetchFunc: grantOf("brief", 30*time.Second)}
	m := newTestTokenManager(source, &fakeClock{now: t0})
	ctx := context.Background()

	token, err := m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "brief", token)

	_, err = m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.Calls(), "a token that expires within the margin is never reused")
}

func TestGetToken_CustomSafetyMargin(t *testing.T) {
	source := &fakeSource{FetchFunc: grantOf("abc", 100*time.Second)}
	clock := &fakeClock{now: t0}
	m := NewTokenManager(source, store.NewMemoryStore(), watermill.NopLogger{},
		WithClock(clock.Now), WithSafetyMargin(10*time.Second))
	ctx := context.Background()

	_, err := m.GetToken(ctx)
	require.NoError(t, err)

	clock.Set(t0.Add(89 * time.Second))
	_, err = m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls())

	clock.Set(t0.Add(90 * time.Second))
	_, err = m.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.Calls())
}

func TestGetToken_ConcurrentMissesShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	source := &fakeSource{FetchFunc: func(int) (core.Grant, error) {
		<-release
		return core.Grant{AccessToken: "abc", ExpiresIn: time.Hour}, nil
	}}
	m := newTestTokenManager(source, &fakeClock{now: t0})

	const callers = 20
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.GetToken(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return source.Calls() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "abc", tokens[i])
	}
	assert.Equal(t, 1, source.Calls())
}

func TestGetToken_CancelledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	fetchCtx := make(chan context.Context, 1)
	source := &fakeSource{}
	source.FetchFunc = func(int) (core.Grant, error) {
		<-release
		return core.Grant{AccessToken: "abc", ExpiresIn: time.Hour}, nil
	}
	m := NewTokenManager(fetchFunc(func(ctx context.Context) (core.Grant, error) {
		fetchCtx <- ctx
		return source.FetchToken(ctx)
	}), store.NewMemoryStore(), watermill.NopLogger{}, WithClock((&fakeClock{now: t0}).Now))

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.GetToken(firstCtx)
		firstErr <- err
	}()
	shared := <-fetchCtx

	type result struct {
		token string
		err   error
	}
	second := make(chan result, 1)
	go func() {
		token, err := m.GetToken(context.Background())
		second <- result{token, err}
	}()

	cancel()
	err := <-firstErr
	require.ErrorIs(t, err, core.ErrTokenRequestFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, shared.Err(), "the shared fetch must outlive the cancelled caller")

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "abc", res.token)
	assert.Equal(t, 1, source.Calls())
}

type fetchFunc func(ctx context.Context) (core.Grant, error)

func (f fetchFunc) FetchToken(ctx context.Context) (core.Grant, error) { return f(ctx) }

func TestToken_ReportsExpiry(t *testing.T) {
	source := &fakeSource{FetchFunc: grantOf("abc", time.Hour)}
	m := newTestTokenManager(source, &fakeClock{now: t0})

	token, err := m.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc", token.Value)
	assert.Equal(t, t0.Add(time.Hour-DefaultSafetyMargin), token.ExpiresAt)
}
