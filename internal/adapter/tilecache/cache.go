// Package tilecache decorates a tile source with an in-memory LRU of tile bytes.
package tilecache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

// CachedSource wraps a TileSource with a bounded LRU cache.
type CachedSource struct {
	inner  domain.TileSource
	cache  *lru.Cache[string, domain.Tile]
	hits   prometheus.Counter
	misses prometheus.Counter
}

// New creates a cache decorator holding at most maxEntries tiles. Hit and
// miss counters may be nil.
func New(inner domain.TileSource, maxEntries int, hits, misses prometheus.Counter) (*CachedSource, error) {
	cache, err := lru.New[string, domain.Tile](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create tile cache: %w", err)
	}
	return &CachedSource{inner: inner, cache: cache, hits: hits, misses: misses}, nil
}

// FetchTile serves from the cache, falling back to the inner source. Only
// successful fetches are cached so failures can be retried.
func (c *CachedSource) FetchTile(ctx context.Context, ref domain.TileRef) (domain.Tile, error) {
	key := ref.CacheKey()
	if tile, ok := c.cache.Get(key); ok {
		inc(c.hits)
		return tile, nil
	}
	inc(c.misses)

	tile, err := c.inner.FetchTile(ctx, ref)
	if err != nil {
		return tile, err
	}
	c.cache.Add(key, tile)
	return tile, nil
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
