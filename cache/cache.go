// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Thread-safe generic cache using sync.Map with background cleanup

package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

// Stats are cumulative lookup counters
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Cache stores values of one type with a shared default TTL
type Cache[V any] struct {
	store  sync.Map
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
	done   chan struct{}
	once   sync.Once
}

// New creates a cache and starts its cleanup goroutine. Call Stop to end it.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go c.startCleanup(time.Minute)
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	val, ok := c.store.Load(key)
	if !ok {
		c.misses.Add(1)
		slog.Debug("Cache miss", "key", key)
		return zero, false
	}

	e := val.(entry[V])
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		c.misses.Add(1)
		slog.Debug("Cache expired", "key", key)
		return zero, false
	}

	c.hits.Add(1)
	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.store.Store(key, entry[V]{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	})
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

func (c *Cache[V]) Clear(key string) {
	c.store.Delete(key)
}

// Purge drops every entry, used when the catalog snapshot changes
func (c *Cache[V]) Purge() {
	c.store.Range(func(key, _ any) bool {
		c.store.Delete(key)
		return true
	})
}

// Len counts live and not-yet-collected entries
func (c *Cache[V]) Len() int {
	n := 0
	c.store.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *Cache[V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Stop ends the cleanup goroutine; safe to call more than once
func (c *Cache[V]) Stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache[V]) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Cache[V]) evictExpired(now time.Time) {
	c.store.Range(func(key, val any) bool {
		if now.After(val.(entry[V]).expiresAt) {
			c.store.Delete(key)
		}
		return true
	})
}
