package tilecache

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

// --- mock for cache tests ---

type countingSource struct {
	calls int
	err   error
}

func (m *countingSource) FetchTile(_ context.Context, ref domain.TileRef) (domain.Tile, error) {
	m.calls++
	if m.err != nil {
		return domain.Tile{}, m.err
	}
	return domain.Tile{Data: []byte(ref.CacheKey()), ContentType: "image/png"}, nil
}

func ref(x int) domain.TileRef {
	return domain.TileRef{Layer: domain.SeaSurfaceTemperature, Day: "2016-05-01", Z: 3, X: x, Y: 1}
}

// --- CachedSource tests ---

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{}
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "hits"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "misses"})
	cached, err := New(inner, 10, hits, misses)
	require.NoError(t, err)

	t1, err := cached.FetchTile(context.Background(), ref(1))
	require.NoError(t, err)
	t2, err := cached.FetchTile(context.Background(), ref(1))
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(hits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(misses), 0)
}

func TestCachedSource_DifferentDaysMiss(t *testing.T) {
	inner := &countingSource{}
	cached, err := New(inner, 10, nil, nil)
	require.NoError(t, err)

	a := ref(1)
	b := ref(1)
	b.Day = "2016-05-02"

	_, err = cached.FetchTile(context.Background(), a)
	require.NoError(t, err)
	_, err = cached.FetchTile(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &countingSource{err: errors.New("upstream down")}
	cached, err := New(inner, 10, nil, nil)
	require.NoError(t, err)

	_, err = cached.FetchTile(context.Background(), ref(1))
	require.Error(t, err)
	_, err = cached.FetchTile(context.Background(), ref(1))
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_Eviction(t *testing.T) {
	inner := &countingSource{}
	cached, err := New(inner, 2, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for _, x := range []int{1, 2, 3} {
		_, err := cached.FetchTile(ctx, ref(x))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.calls)

	// ref(1) was evicted, so fetching it goes upstream again.
	_, err = cached.FetchTile(ctx, ref(1))
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}

func TestNew_RejectsZeroSize(t *testing.T) {
	_, err := New(&countingSource{}, 0, nil, nil)
	assert.Error(t, err)
}
