//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coral-bleaching-map/internal/adapter/tilecache"
	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_FetchBaseLayers(t *testing.T) {
	c := smokeClient(t)

	for _, layer := range domain.MapboxBaseLayers {
		t.Run(layer, func(t *testing.T) {
			// Great Barrier Reef at zoom 4.
			tile, err := c.FetchTile(context.Background(), domain.TileRef{Layer: layer, Z: 4, X: 14, Y: 9})
			require.NoError(t, err)
			assert.NotEmpty(t, tile.Data)
			assert.Contains(t, tile.ContentType, "image/")
		})
	}
}

func TestSmoke_CachedSource(t *testing.T) {
	c := smokeClient(t)
	cached, err := tilecache.New(c, 10, nil, nil)
	require.NoError(t, err)

	ref := domain.TileRef{Layer: domain.MapboxSatellite, Z: 2, X: 3, Y: 2}

	// First call: cache miss → real API call.
	t1, err := cached.FetchTile(context.Background(), ref)
	require.NoError(t, err)

	// Second call: cache hit → no API call.
	t2, err := cached.FetchTile(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, t1, t2)
}
