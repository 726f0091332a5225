package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndGet(t *testing.T) {
	st := NewStore(time.Minute, testConfig(clockwork.NewFakeClockAt(wallClock)))

	s, err := st.Create(VariantYear)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())
}

func TestStore_GetUnknown(t *testing.T) {
	st := NewStore(time.Minute, testConfig(clockwork.NewFakeClock()))

	_, err := st.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestStore_Delete(t *testing.T) {
	st := NewStore(time.Minute, testConfig(clockwork.NewFakeClock()))

	s, err := st.Create(VariantWeek)
	require.NoError(t, err)
	st.Delete(s.ID())

	_, err = st.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_ActiveSessionsGauge(t *testing.T) {
	cfg := testConfig(clockwork.NewFakeClock())
	st := NewStore(time.Minute, cfg)

	a, err := st.Create(VariantWeek)
	require.NoError(t, err)
	_, err = st.Create(VariantYear)
	require.NoError(t, err)
	assert.InDelta(t, 2, testutil.ToFloat64(cfg.Metrics.ActiveSessions), 0)

	st.Delete(a.ID())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(cfg.Metrics.ActiveSessions) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStore_CreateRejectsUnknownVariant(t *testing.T) {
	st := NewStore(time.Minute, testConfig(clockwork.NewFakeClock()))
	_, err := st.Create(Variant("decade"))
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestStore_SessionsExpire(t *testing.T) {
	st := NewStore(20*time.Millisecond, testConfig(clockwork.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Run(ctx)

	_, err := st.Create(VariantWeek)
	require.NoError(t, err)

	// Len does not touch entries, so the TTL is not extended while polling.
	require.Eventually(t, func() bool {
		return st.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantWeek, v)

	v, err = ParseVariant("year")
	require.NoError(t, err)
	assert.Equal(t, VariantYear, v)

	_, err = ParseVariant("month")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}
