package creds

import (
	"context"
	"sync"
	"time"

	"github.com/systmms/secretree/internal/metrics"
)

// DefaultTTL is how long a cached credential set stays fresh. Sets are
// recomputed lazily on the first lookup past the window and never
// proactively invalidated.
const DefaultTTL = 120 * time.Second

// ListFunc performs the bulk vault listing for one context.
type ListFunc func(ctx context.Context) ([]Descriptor, error)

// Cache is the process-wide registry of cached credential sets, keyed
// by the context's tree path. Recomputation of a given key is
// serialized by a per-key lock; distinct keys recompute independently.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	mu          sync.Mutex
	computed    bool
	computedAt  time.Time
	descriptors []Descriptor
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCacheClock overrides the time source. Used in tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty registry.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached set for key while it is fresh, recomputing it
// via list otherwise. A failed recomputation caches nothing.
func (c *Cache) Get(ctx context.Context, key string, list ListFunc) ([]Descriptor, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.computed && c.now().Sub(e.computedAt) < c.ttl {
		metrics.RecordCacheLookup("hit")
		return e.descriptors, nil
	}
	metrics.RecordCacheLookup("miss")

	descriptors, err := list(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordCacheLookup("recompute")

	e.computed = true
	e.computedAt = c.now()
	e.descriptors = descriptors
	return descriptors, nil
}
