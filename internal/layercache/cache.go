// Package layercache keeps one imagery layer per calendar day, building each
// on first use and handing back the same value afterwards.
package layercache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

// Factory builds the resource for a day. It receives the normalized key,
// which doubles as the tile source time parameter.
type Factory[R any] func(key domain.DateKey) R

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxEntries int
	hits       prometheus.Counter
	misses     prometheus.Counter
}

// WithMaxEntries bounds the cache, evicting the least recently used day.
// Zero or negative leaves the cache unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithCounters records lookups on the given hit and miss counters.
func WithCounters(hits, misses prometheus.Counter) Option {
	return func(o *options) {
		o.hits = hits
		o.misses = misses
	}
}

// Cache maps DateKey to a lazily built resource. It is safe for concurrent
// use; the factory runs at most once per key while the key is resident.
type Cache[R any] struct {
	factory Factory[R]
	opts    options

	mu      sync.Mutex
	entries map[domain.DateKey]R
	bounded *lru.Cache[domain.DateKey, R]
}

// New creates a cache around factory. Without WithMaxEntries entries are
// never evicted.
func New[R any](factory Factory[R], opts ...Option) *Cache[R] {
	c := &Cache[R]{factory: factory}
	for _, opt := range opts {
		opt(&c.opts)
	}

	if c.opts.maxEntries > 0 {
		// lru.New only fails on a non-positive size.
		c.bounded, _ = lru.New[domain.DateKey, R](c.opts.maxEntries)
	} else {
		c.entries = make(map[domain.DateKey]R)
	}
	return c
}

// GetOrCreate returns the resource for t's calendar day, building it on
// first access.
func (c *Cache[R]) GetOrCreate(t time.Time) R {
	return c.Get(domain.NewDateKey(t))
}

// Get returns the resource for key, building it on first access.
func (c *Cache[R]) Get(key domain.DateKey) R {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.lookup(key); ok {
		inc(c.opts.hits)
		return r
	}
	inc(c.opts.misses)

	r := c.factory(key)
	c.store(key, r)
	return r
}

// Len returns the number of resident days.
func (c *Cache[R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.entries)
}

func (c *Cache[R]) lookup(key domain.DateKey) (R, bool) {
	if c.bounded != nil {
		return c.bounded.Get(key)
	}
	r, ok := c.entries[key]
	return r, ok
}

func (c *Cache[R]) store(key domain.DateKey, r R) {
	if c.bounded != nil {
		c.bounded.Add(key, r)
		return
	}
	c.entries[key] = r
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
