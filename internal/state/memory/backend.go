// Package memory provides an in-process session backend with TTL expiry and
// a bounded session count. The default for single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tjfontaine/relay/internal/core/ports"
)

// Backend keeps session entries in an expirable LRU keyed by session id.
// A ttl of 0 means sessions never expire; maxSessions of 0 means unbounded.
type Backend struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, map[string][]byte]
}

var _ ports.SessionBackend = (*Backend)(nil)

// New creates a memory backend.
func New(maxSessions int, ttl time.Duration) *Backend {
	return &Backend{
		cache: expirable.NewLRU[string, map[string][]byte](maxSessions, nil, ttl),
	}
}

func (b *Backend) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, ok := b.cache.Get(sessionID)
	if !ok {
		return nil, false, nil
	}
	v, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (b *Backend) Set(ctx context.Context, sessionID, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, ok := b.cache.Get(sessionID)
	if !ok {
		entries = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	entries[key] = stored

	// Add refreshes the entry's expiry, so an active session stays alive.
	b.cache.Add(sessionID, entries)
	return nil
}

func (b *Backend) Delete(ctx context.Context, sessionID, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Peek and mutate in place: unlike Set, deleting one key must not
	// extend the session's expiry.
	entries, ok := b.cache.Peek(sessionID)
	if !ok {
		return nil
	}
	delete(entries, key)
	return nil
}

func (b *Backend) Clear(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Remove(sessionID)
	return nil
}

// Len returns the number of live sessions.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cache.Len()
}

func (b *Backend) Close() error {
	return nil
}
