package domain

import (
	"errors"
	"fmt"
	"time"
)

const dateKeyLayout = "2006-01-02"

// ErrInvalidDate is returned when a string is not a YYYY-MM-DD calendar day.
var ErrInvalidDate = errors.New("invalid date")

// DateKey is a UTC calendar day in YYYY-MM-DD form. It is the GIBS time
// parameter and the layer cache key.
type DateKey string

// NewDateKey normalizes an instant to its UTC calendar day.
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.UTC().Format(dateKeyLayout))
}

// ParseDateKey validates s and returns it as a DateKey.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidDate, s, err)
	}
	return NewDateKey(t), nil
}

// Time returns midnight UTC of the key's day.
func (k DateKey) Time() time.Time {
	t, _ := time.Parse(dateKeyLayout, string(k))
	return t
}

func (k DateKey) String() string { return string(k) }

// DayOffset returns today shifted back by |offset| days. The sign of offset
// is ignored: slider values are "days before today" whichever way they are
// written.
func DayOffset(today time.Time, offset int) time.Time {
	if offset < 0 {
		offset = -offset
	}
	return today.AddDate(0, 0, -offset)
}
