package domain

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Survey column positions.
const (
	ColLatitude      = 13
	ColLongitude     = 14
	ColLiveCoral     = 15
	ColPaleCoral     = 16
	ColBleachedCoral = 17
	ColPaleBleachSum = 18

	// MinColumns is the width of a complete survey row.
	MinColumns = 19
)

// CoralRow is one survey record, fields in file order.
type CoralRow []string

// Field returns column i, or false when the row is too short.
func (r CoralRow) Field(i int) (string, bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	return r[i], true
}

func (r CoralRow) field(i int) string {
	v, _ := r.Field(i)
	return v
}

// SeveritySum is the raw pale + bleached value used for sorting and color.
func (r CoralRow) SeveritySum() string { return r.field(ColPaleBleachSum) }

// Coordinates returns the row position in lon/lat order. Rows with a missing,
// blank, or non-numeric coordinate report false.
func (r CoralRow) Coordinates() (orb.Point, bool) {
	lat, ok := parseCoordinate(r, ColLatitude)
	if !ok {
		return orb.Point{}, false
	}
	lon, ok := parseCoordinate(r, ColLongitude)
	if !ok {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

func parseCoordinate(r CoralRow, col int) (float64, bool) {
	s, ok := r.Field(col)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// RowsFromRecords drops the header record and a trailing blank record, and
// wraps the rest as CoralRows.
func RowsFromRecords(records [][]string) []CoralRow {
	if len(records) == 0 {
		return nil
	}
	records = records[1:]
	if n := len(records); n > 0 && isBlankRecord(records[n-1]) {
		records = records[:n-1]
	}

	rows := make([]CoralRow, len(records))
	for i, rec := range records {
		rows[i] = CoralRow(rec)
	}
	return rows
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseLeadingInt reads an optionally signed run of decimal digits after
// leading whitespace and ignores whatever follows.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// Overflow: far outside every band, treat as unparseable.
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
