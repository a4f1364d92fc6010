// Package langcache provides memo caches for resolved language pairs,
// keyed by exact user id.
package langcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lingualoop/learning-api/internal/language"
)

// DefaultSize is the default number of users kept by Memory.
const DefaultSize = 1024

// Memory is a bounded LRU cache with per-entry expiry, local to one
// Lambda instance. It is safe for concurrent use.
type Memory struct {
	lru *expirable.LRU[string, language.Pair]
}

// NewMemory creates a cache holding at most size users for ttl each.
// A zero ttl keeps entries until evicted.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{lru: expirable.NewLRU[string, language.Pair](size, nil, ttl)}
}

// Get returns the pair of userID if present and not expired.
func (m *Memory) Get(_ context.Context, userID string) (language.Pair, bool) {
	return m.lru.Get(userID)
}

// Set stores pair for userID, evicting the least recently used entry when full.
func (m *Memory) Set(_ context.Context, userID string, pair language.Pair) {
	m.lru.Add(userID, pair)
}

// Invalidate removes userID.
func (m *Memory) Invalidate(_ context.Context, userID string) {
	m.lru.Remove(userID)
}

// InvalidateAll removes every entry.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.lru.Purge()
}

// Len returns the number of cached users. Expired entries count until the
// background sweep drops them.
func (m *Memory) Len() int {
	return m.lru.Len()
}
