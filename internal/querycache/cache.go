// Package querycache is a keyed response cache with a staleness window,
// prefix invalidation and per-key request coalescing.
package querycache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"holder-analytics/internal/observability"
)

// Default cache settings.
const (
	DefaultSize         = 500
	DefaultStaleAge     = 30 * time.Second
	DefaultFetchTimeout = 30 * time.Second
)

type entry struct {
	value    any
	storedAt time.Time
}

// Cache holds fetched responses keyed by query key.
type Cache struct {
	entries      *lru.Cache
	group        singleflight.Group
	staleAge     time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleAge sets how long an entry is served before it is refetched.
func WithStaleAge(d time.Duration) Option {
	return func(c *Cache) {
		c.staleAge = d
	}
}

// WithFetchTimeout bounds a shared fetch. It runs detached from the
// cancellation of whichever caller started it; zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache holding at most size entries.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		entries:      entries,
		staleAge:     DefaultStaleAge,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns a fresh cached value.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if c.now().Sub(e.storedAt) >= c.staleAge {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *Cache) Set(key string, value any) {
	c.entries.Add(key, entry{value: value, storedAt: c.now()})
	observability.UpdateCacheEntries(c.entries.Len())
}

// Fetch returns the fresh value for key or calls fn to produce it.
// Concurrent callers for one key share a single fn call, which keeps the
// values of ctx but not its cancellation. A caller whose ctx ends stops
// waiting with ctx.Err(). Errors are returned to every waiting caller and
// never cached.
func (c *Cache) Fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		observability.RecordCacheLookup("hit")
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
			defer cancel()
		}
		v, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			observability.RecordCacheLookup("shared")
		} else {
			observability.RecordCacheLookup("miss")
		}
		return res.Val, res.Err
	}
}

// Invalidate removes key.
func (c *Cache) Invalidate(key string) {
	c.entries.Remove(key)
	observability.UpdateCacheEntries(c.entries.Len())
}

// InvalidatePrefix removes every key starting with prefix and returns how
// many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, k := range c.entries.Keys() {
		key, ok := k.(string)
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		if c.entries.Remove(key) {
			removed++
		}
	}
	observability.RecordCacheInvalidation(prefix, removed)
	observability.UpdateCacheEntries(c.entries.Len())
	return removed
}

// Len returns the number of entries, stale ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
	observability.UpdateCacheEntries(0)
}

// Fetch is a typed wrapper around Cache.Fetch.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
