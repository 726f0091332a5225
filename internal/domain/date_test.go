package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateKey(t *testing.T) {
	hst := time.FixedZone("HST", -10*60*60)
	jst := time.FixedZone("JST", 9*60*60)

	t.Run("same UTC day same key", func(t *testing.T) {
		a := time.Date(2024, 4, 26, 0, 0, 1, 0, time.UTC)
		b := time.Date(2024, 4, 26, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, NewDateKey(a), NewDateKey(b))
		assert.Equal(t, DateKey("2024-04-26"), NewDateKey(a))
	})

	t.Run("zone offsets normalize to UTC", func(t *testing.T) {
		// 2024-04-25 20:00 HST and 2024-04-26 15:00 JST are both 2024-04-26 in UTC.
		a := time.Date(2024, 4, 25, 20, 0, 0, 0, hst)
		b := time.Date(2024, 4, 26, 15, 0, 0, 0, jst)
		assert.Equal(t, DateKey("2024-04-26"), NewDateKey(a))
		assert.Equal(t, NewDateKey(a), NewDateKey(b))
	})
}

func TestParseDateKey(t *testing.T) {
	k, err := ParseDateKey("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, DateKey("2024-02-29"), k)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), k.Time())

	for _, bad := range []string{"2023-02-29", "2024/04/26", "yesterday", ""} {
		_, err := ParseDateKey(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrInvalidDate))
	}
}

func TestDayOffset(t *testing.T) {
	today := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DateKey("2024-03-01"), NewDateKey(DayOffset(today, 0)))
	assert.Equal(t, DateKey("2024-02-23"), NewDateKey(DayOffset(today, -7)))
	assert.Equal(t, DateKey("2024-02-23"), NewDateKey(DayOffset(today, 7)))
	assert.Equal(t, DateKey("2023-03-02"), NewDateKey(DayOffset(today, -365)))
}
