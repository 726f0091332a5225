package session

import (
	"fmt"
	"time"
)

// Variant selects the slider range and auto-play behavior of a session.
type Variant string

const (
	// VariantWeek is the seven-day slider anchored at yesterday.
	VariantWeek Variant = "week"
	// VariantYear is the year slider in weekly steps with auto-play, anchored
	// two days back.
	VariantYear Variant = "year"
)

// SliderSpec describes the slider control in days relative to today.
type SliderSpec struct {
	Value int `json:"value"`
	Min   int `json:"min"`
	Max   int `json:"max"`
	Step  int `json:"step"`
}

// Clamp limits offset to [Min, Max].
func (s SliderSpec) Clamp(offset int) int {
	return max(s.Min, min(s.Max, offset))
}

type variantSpec struct {
	slider SliderSpec
	// lag is how far "today" sits behind the wall clock; imagery for the
	// current day is not yet published.
	lag          time.Duration
	autoPlay     bool
	autoPlayStep int
}

var variants = map[Variant]variantSpec{
	VariantWeek: {
		slider: SliderSpec{Value: 0, Min: -7, Max: 0, Step: 1},
		lag:    24 * time.Hour,
	},
	VariantYear: {
		slider:       SliderSpec{Value: 0, Min: -365, Max: 0, Step: 7},
		lag:          48 * time.Hour,
		autoPlay:     true,
		autoPlayStep: 14,
	},
}

// ParseVariant maps a query value to a Variant. Empty means VariantWeek.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantWeek, nil
	}
	v := Variant(s)
	if _, ok := variants[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	return v, nil
}
