// Package cache provides the short-lived result memoization layer for
// ranking queries.
package cache

import (
	"sync"
	"time"
)

const defaultTTL = 60 * time.Second

// Cache memoizes computed query results under canonical string keys.
// Entries expire after a fixed TTL; any observation write clears the
// whole cache. Staleness within the TTL is an accepted tradeoff, so no
// per-key locking is needed.
type Cache interface {
	// Get returns the cached value for key, or false when absent or
	// expired.
	Get(key string) (any, bool)

	// Put stores value under key with the configured TTL.
	Put(key string, value any)

	// InvalidateAll drops every entry. The write path calls this
	// synchronously before acknowledging a write, so a client that
	// re-queries immediately never sees a stale board.
	InvalidateAll()

	// Len returns the number of live entries, expired ones included
	// until they are touched.
	Len() int
}

type entry struct {
	at    time.Time
	value any
}

// memoCache implements Cache with an RWMutex-guarded map and lazy
// expiry on read.
type memoCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option applies a configuration option to the cache.
type Option func(*memoCache)

// WithTTL overrides the default 60s entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *memoCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNow replaces the time source, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *memoCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an in-memory result cache.
func New(opts ...Option) Cache {
	c := &memoCache{
		entries: make(map[string]entry),
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *memoCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.at) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a Put may have refreshed it.
		if cur, ok := c.entries[key]; ok && c.now().Sub(cur.at) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *memoCache) Put(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{at: c.now(), value: value}
	c.mu.Unlock()
}

func (c *memoCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

func (c *memoCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
