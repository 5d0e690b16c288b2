// Package cache provides a process-local TTL memoizer used by marketplace
// adapters to avoid redundant upstream calls. Entries expire lazily: an
// expired entry is removed on the read that observes it, so there is no
// background sweeper and no timer goroutine.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe key/value store with per-entry expiry.
// The zero value is not usable; use New.
//
// There is no size bound: the key space is the set of
// (provider, normalized query, pushdown filters, limit) tuples actually
// requested, which is small and churns out by expiry.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	defaultTTL time.Duration
	nowFunc    func() time.Time
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithNowFunc overrides the time source for testing.
func WithNowFunc[K comparable, V any](f func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.nowFunc = f
	}
}

// New creates a Cache whose Set and GetOrCompute use defaultTTL unless an
// explicit TTL is given.
func New[K comparable, V any](defaultTTL time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the unexpired value for key. An entry whose expiry has passed
// is deleted and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.nowFunc().After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under the default TTL, overwriting any existing entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value with an explicit TTL.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.nowFunc().Add(ttl),
	}
}

// GetOrCompute returns the cached value for key, or invokes compute, stores
// the result under the default TTL, and returns it. A compute error is
// returned as-is and nothing is stored.
//
// Concurrent callers that miss on the same key each invoke compute; there is
// no in-flight coalescing. Provider calls are cheap and low-concurrency
// enough that the occasional duplicate upstream call is acceptable.
func (c *Cache[K, V]) GetOrCompute(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	return c.GetOrComputeTTL(ctx, key, c.defaultTTL, compute)
}

// GetOrComputeTTL is GetOrCompute with an explicit TTL for the stored result.
func (c *Cache[K, V]) GetOrComputeTTL(ctx context.Context, key K, ttl time.Duration, compute func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.SetTTL(key, v, ttl)
	return v, nil
}

// Len returns the number of stored entries, counting any not yet evicted
// expired ones.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
