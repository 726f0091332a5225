package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsFromRecords(t *testing.T) {
	t.Run("drops header and trailing blank row", func(t *testing.T) {
		records := [][]string{
			{"header"},
			{"a"},
			{"b"},
			{""},
		}
		rows := RowsFromRecords(records)
		require.Len(t, rows, 2)
		assert.Equal(t, CoralRow{"a"}, rows[0])
		assert.Equal(t, CoralRow{"b"}, rows[1])
	})

	t.Run("keeps non-blank last row", func(t *testing.T) {
		rows := RowsFromRecords([][]string{{"header"}, {"a"}, {"b"}})
		assert.Len(t, rows, 2)
	})

	t.Run("header only", func(t *testing.T) {
		assert.Empty(t, RowsFromRecords([][]string{{"header"}}))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, RowsFromRecords(nil))
	})
}

func TestCoralRow_Field(t *testing.T) {
	row := CoralRow{"x", "y"}

	v, ok := row.Field(1)
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = row.Field(2)
	assert.False(t, ok)
	_, ok = row.Field(-1)
	assert.False(t, ok)
}
