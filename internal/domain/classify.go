package domain

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ColorBand is the severity bucket a marker is colored by.
type ColorBand int

const (
	BandDefault ColorBand = iota
	BandLow
	BandModerate
	BandHigh
	BandSevere
)

var bandColors = [...]string{
	BandDefault:  "#2f2000",
	BandLow:      "#6D4B08",
	BandModerate: "#AA8439",
	BandHigh:     "#E7C889",
	BandSevere:   "#FFF3DA",
}

// Color returns the marker color for the band.
func (b ColorBand) Color() string {
	if b < BandDefault || b > BandSevere {
		return bandColors[BandDefault]
	}
	return bandColors[b]
}

func (b ColorBand) String() string { return "band" + strconv.Itoa(int(b)) }

// SizeClass is the marker size bucket.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// ClassifyColor buckets a raw severity sum. Unparseable values get BandDefault.
func ClassifyColor(raw string) ColorBand {
	v, ok := parseLeadingInt(raw)
	if !ok {
		return BandDefault
	}
	return colorBandFor(v)
}

func colorBandFor(v int) ColorBand {
	switch {
	case v > 10 && v < 25:
		return BandLow
	case v >= 25 && v < 50:
		return BandModerate
	case v >= 50 && v < 75:
		return BandHigh
	case v >= 75 && v <= 100:
		return BandSevere
	default:
		return BandDefault
	}
}

// ClassifySize buckets a raw live coral percentage. Unparseable values are small.
func ClassifySize(raw string) SizeClass {
	v, ok := parseLeadingInt(raw)
	if !ok {
		return SizeSmall
	}
	switch {
	case v > 66:
		return SizeLarge
	case v > 33:
		return SizeMedium
	default:
		return SizeSmall
	}
}

// SortBySeverity orders rows ascending by severity sum, in place. Rows whose
// sum is not a number go last, ordered by their raw text. Ties keep file order.
func SortBySeverity(rows []CoralRow) {
	slices.SortStableFunc(rows, func(a, b CoralRow) int {
		av, aok := severityValue(a)
		bv, bok := severityValue(b)
		switch {
		case aok && bok:
			return cmp.Compare(av, bv)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return strings.Compare(a.SeveritySum(), b.SeveritySum())
		}
	})
}

func severityValue(r CoralRow) (float64, bool) {
	s := strings.TrimSpace(r.SeveritySum())
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
