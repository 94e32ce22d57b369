// Package cachestore provides the two in-process TTL tiers backing the
// proxy's raw and derived caches: a generic map with lazy
// expiry-on-access plus a periodic sweep goroutine, and an optional
// Redis-backed implementation for multi-instance deployments. The number
// of entries in the in-memory map is not capped; only TTL expiry removes
// them. Neither
// tier ever touches disk — fetched upstream data is never persisted.
package cachestore

import (
	"context"
	"sync"
	"time"
)

// Cache is a generic TTL-bounded key/value store. Implementations must be
// safe for concurrent use.
type Cache[V any] interface {
	// Get returns the cached value for key, or ok=false on a miss or
	// expired entry.
	Get(ctx context.Context, key string) (value V, ok bool, err error)
	// Set stores value under key with the given time-to-live. A zero or
	// negative ttl means the entry never expires.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Delete removes key, if present.
	Delete(ctx context.Context, key string) error
	// Len reports the number of live entries, for debug/status reporting.
	Len() int
	// Close releases background resources (sweep goroutine, connections).
	Close() error
}

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means "never expires"
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process, mutex-guarded TTL cache. Expired entries
// are dropped lazily on access and also swept periodically so that
// never-accessed-again entries don't linger.
type MemoryCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
}

// NewMemoryCache returns a MemoryCache that sweeps expired entries every
// sweepInterval. A non-positive sweepInterval disables the background
// sweep; entries still expire lazily on Get.
func NewMemoryCache[V any](sweepInterval time.Duration) *MemoryCache[V] {
	c := &MemoryCache[V]{
		entries:       make(map[string]entry[V]),
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop()
	}
	return c
}

func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false, nil
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		var zero V
		return zero, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache[V]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache[V]) Close() error {
	c.stopOnce.Do(func() { close(c.stopSweep) })
	return nil
}

func (c *MemoryCache[V]) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopSweep:
			return
		}
	}
}

// Ensure MemoryCache implements Cache.
var _ Cache[int] = (*MemoryCache[int])(nil)

func (c *MemoryCache[V]) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
