package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
)

const testTemplate = "http://map1{s}.example/{layer}/default/{time}/{tileMatrixSet}/{z}/{y}/{x}.{format}"

var wallClock = time.Date(2024, time.April, 28, 9, 30, 0, 0, time.UTC)

func testConfig(clock clockwork.Clock) Config {
	return Config{
		Clock:            clock,
		URLTemplate:      testTemplate,
		AutoPlayInterval: time.Millisecond,
		Metrics:          observability.NewMetricsForTesting(),
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newTestSession(t *testing.T, variant Variant) *Session {
	t.Helper()
	s, err := New("sess-1", variant, testConfig(clockwork.NewFakeClockAt(wallClock)))
	require.NoError(t, err)
	return s
}

func TestNew_StartsIdle(t *testing.T) {
	s := newTestSession(t, VariantWeek)
	snap := s.Snapshot()

	assert.Nil(t, snap.Active)
	assert.Zero(t, snap.Attached)
	assert.Empty(t, snap.Label)
	assert.Equal(t, SliderSpec{Value: 0, Min: -7, Max: 0, Step: 1}, snap.Slider)
}

func TestNew_TodayLagsPerVariant(t *testing.T) {
	week := newTestSession(t, VariantWeek)
	year := newTestSession(t, VariantYear)

	assert.Equal(t, domain.DateKey("2024-04-27"), week.Snapshot().Today)
	assert.Equal(t, domain.DateKey("2024-04-26"), year.Snapshot().Today)
	assert.Equal(t, SliderSpec{Value: 0, Min: -365, Max: 0, Step: 7}, year.Snapshot().Slider)
}

func TestNew_UnknownVariant(t *testing.T) {
	_, err := New("x", Variant("month"), testConfig(clockwork.NewFakeClock()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestHandle_SlideSelectsDate(t *testing.T) {
	s := newTestSession(t, VariantWeek)

	snap, err := s.Handle(SlideEvent{Offset: -3})
	require.NoError(t, err)

	assert.Equal(t, domain.DateKey("2024-04-24"), snap.Day)
	assert.Equal(t, "2024-04-24", snap.Label)
	assert.Equal(t, -3, snap.Slider.Value)
	require.NotNil(t, snap.Active)
	assert.Equal(t, domain.DateKey("2024-04-24"), snap.Active.Config.Time)
	assert.Equal(t, 1, snap.Attached)
}

func TestHandle_SlideClampsToRange(t *testing.T) {
	s := newTestSession(t, VariantWeek)

	snap, err := s.Handle(SlideEvent{Offset: -30})
	require.NoError(t, err)
	assert.Equal(t, -7, snap.Slider.Value)
	assert.Equal(t, domain.DateKey("2024-04-20"), snap.Day)

	snap, err = s.Handle(SlideEvent{Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Slider.Value)
	assert.Equal(t, domain.DateKey("2024-04-27"), snap.Day)
}

func TestHandle_RevisitReusesCachedLayer(t *testing.T) {
	s := newTestSession(t, VariantWeek)

	first, err := s.Handle(SlideEvent{Offset: -2})
	require.NoError(t, err)
	_, err = s.Handle(SlideEvent{Offset: -5})
	require.NoError(t, err)
	again, err := s.Handle(SlideEvent{Offset: -2})
	require.NoError(t, err)

	assert.Same(t, first.Active, again.Active)
	assert.Equal(t, 2, again.CachedLayers)
}

func TestHandle_AtMostOneLayerAttached(t *testing.T) {
	s := newTestSession(t, VariantYear)

	for _, offset := range []int{0, -7, -14, -7, -365, 0, -200} {
		snap, err := s.Handle(SlideEvent{Offset: offset})
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Attached)
	}
}

func TestHandle_ClickAddsCustomMarker(t *testing.T) {
	s := newTestSession(t, VariantWeek)

	snap, err := s.Handle(ClickEvent{Lat: 21.3, Lon: -157.8})
	require.NoError(t, err)

	require.Len(t, snap.CustomMarkers, 1)
	m := snap.CustomMarkers[0]
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, domain.CustomMarkerPrompt, m.Popup)
	assert.InDelta(t, 21.3, m.Position.Lat(), 1e-9)
	assert.InDelta(t, -157.8, m.Position.Lon(), 1e-9)
	// Clicking does not touch the imagery.
	assert.Nil(t, snap.Active)
}

func TestHandle_TickWithoutAutoPlayIsNoop(t *testing.T) {
	s := newTestSession(t, VariantYear)

	snap, err := s.Handle(TickEvent{})
	require.NoError(t, err)
	assert.Nil(t, snap.Active)
	assert.False(t, snap.AutoPlaying)
}

func TestStartAutoPlay_WeekUnsupported(t *testing.T) {
	s := newTestSession(t, VariantWeek)
	err := s.StartAutoPlay(context.Background())
	assert.ErrorIs(t, err, ErrAutoPlayUnsupported)
}

func TestAutoPlay_StepsAcrossYear(t *testing.T) {
	s, err := New("sess-auto", VariantYear, testConfig(clockwork.NewRealClock()))
	require.NoError(t, err)

	require.NoError(t, s.StartAutoPlay(context.Background()))

	require.Eventually(t, func() bool {
		return !s.Snapshot().AutoPlaying
	}, 5*time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	// -365, -351, ..., -1: 27 distinct days.
	assert.Equal(t, 27, snap.CachedLayers)
	assert.Equal(t, domain.NewDateKey(domain.DayOffset(s.today, -1)), snap.Day)
	assert.Equal(t, 0, snap.Slider.Value)
	assert.Equal(t, 1, snap.Attached)
}

func TestAutoPlay_ManualTicks(t *testing.T) {
	s := newTestSession(t, VariantYear)

	s.mu.Lock()
	s.autoPlaying = true
	s.autoOffset = s.spec.slider.Min
	s.mu.Unlock()

	snap, err := s.Handle(TickEvent{})
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2023-04-27"), snap.Day)
	assert.Equal(t, -351, snap.Slider.Value)
	assert.True(t, snap.AutoPlaying)

	snap, err = s.Handle(TickEvent{})
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2023-05-11"), snap.Day)
	assert.Equal(t, -337, snap.Slider.Value)
}

func TestAutoPlay_CloseStops(t *testing.T) {
	fc := clockwork.NewFakeClockAt(wallClock)
	s, err := New("sess-close", VariantYear, testConfig(fc))
	require.NoError(t, err)

	require.NoError(t, s.StartAutoPlay(context.Background()))
	s.Close()

	assert.False(t, s.Snapshot().AutoPlaying)
}

func TestAutoPlay_StaleRunTickIgnored(t *testing.T) {
	s := newTestSession(t, VariantYear)

	// Run 2 has just replaced run 1 and rewound to the start.
	s.mu.Lock()
	s.autoPlaying = true
	s.autoRun = 2
	s.autoOffset = s.spec.slider.Min
	s.mu.Unlock()

	snap, err := s.Handle(TickEvent{run: 1})
	require.NoError(t, err)
	assert.Zero(t, snap.CachedLayers)
	assert.True(t, snap.AutoPlaying)

	snap, err = s.Handle(TickEvent{run: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2023-04-27"), snap.Day, "restarted run still begins at -365")
	assert.Equal(t, -351, snap.Slider.Value)
}
