package store

import (
	"context"
	"sync"

	"github.com/layer-3/paygate/core"
	"github.com/layer-3/paygate/ports"
)

// MemoryStore keeps the provider token in process memory.
// Each instance is independent; nothing survives a restart.
type MemoryStore struct {
	token core.AccessToken
	set   bool
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory token store
func NewMemoryStore() ports.TokenStore {
	return &MemoryStore{}
}

// Get returns the cached token, if one has been stored
func (s *MemoryStore) Get(ctx context.Context) (core.AccessToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token, s.set, nil
}

// Set replaces the cached token
func (s *MemoryStore) Set(ctx context.Context, token core.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.set = true
	return nil
}
