package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CustomMarkerPrompt is the popup shown on markers placed by clicking the map.
const CustomMarkerPrompt = "Enter Coral Bleaching Data"

// Marker is a classified survey point.
type Marker struct {
	ID            string    `json:"id"`
	Position      orb.Point `json:"position"` // [lon, lat]
	Color         ColorBand `json:"color_band"`
	Size          SizeClass `json:"size"`
	LiveCoral     string    `json:"live_coral"`
	PaleCoral     string    `json:"pale_coral"`
	BleachedCoral string    `json:"bleached_coral"`
	PaleBleachSum string    `json:"pale_bleach_sum"`
	Popup         string    `json:"popup"`
}

// ClassifyRow turns a row into a marker. Rows without usable coordinates
// report false.
func ClassifyRow(row CoralRow) (Marker, bool) {
	pos, ok := row.Coordinates()
	if !ok {
		return Marker{}, false
	}

	m := Marker{
		Position:      pos,
		Color:         ClassifyColor(row.SeveritySum()),
		Size:          ClassifySize(row.field(ColLiveCoral)),
		LiveCoral:     row.field(ColLiveCoral),
		PaleCoral:     row.field(ColPaleCoral),
		BleachedCoral: row.field(ColBleachedCoral),
		PaleBleachSum: row.SeveritySum(),
	}
	m.ID = markerID(m)
	m.Popup = fmt.Sprintf("liveCoral:%s\npaleCoral:%s\nbleachedCoral:%s\npaleBleachSum:%s",
		m.LiveCoral, m.PaleCoral, m.BleachedCoral, m.PaleBleachSum)
	return m, true
}

// BuildMarkers sorts rows by severity and classifies each one. It returns the
// markers in ascending severity order and the number of rows skipped for
// missing coordinates. Repeated identical rows keep separate markers; the
// second and later copies get "-2", "-3", ... appended to the shared ID.
func BuildMarkers(rows []CoralRow) ([]Marker, int) {
	SortBySeverity(rows)

	markers := make([]Marker, 0, len(rows))
	seen := make(map[string]int, len(rows))
	skipped := 0
	for _, row := range rows {
		m, ok := ClassifyRow(row)
		if !ok {
			skipped++
			continue
		}
		seen[m.ID]++
		if n := seen[m.ID]; n > 1 {
			m.ID += "-" + strconv.Itoa(n)
		}
		markers = append(markers, m)
	}
	return markers, skipped
}

// markerID is a short hash of position and survey values, stable across reloads.
func markerID(m Marker) string {
	input := fmt.Sprintf("%.6f|%.6f|%s|%s|%s|%s",
		m.Position.Lat(), m.Position.Lon(), m.LiveCoral, m.PaleCoral, m.BleachedCoral, m.PaleBleachSum)
	hash := sha256.Sum256([]byte(input))
	return "reef-" + hex.EncodeToString(hash[:8])
}

// Feature renders the marker as a GeoJSON point with simplestyle properties.
func (m Marker) Feature() *geojson.Feature {
	f := geojson.NewFeature(m.Position)
	f.ID = m.ID
	f.Properties["marker-color"] = m.Color.Color()
	f.Properties["marker-size"] = string(m.Size)
	f.Properties["color_band"] = int(m.Color)
	f.Properties["liveCoral"] = m.LiveCoral
	f.Properties["paleCoral"] = m.PaleCoral
	f.Properties["bleachedCoral"] = m.BleachedCoral
	f.Properties["paleBleachSum"] = m.PaleBleachSum
	f.Properties["popup"] = m.Popup
	f.Properties["riseOnHover"] = true
	return f
}

// CustomMarker is a marker a user placed by clicking the map.
type CustomMarker struct {
	ID       string    `json:"id"`
	Position orb.Point `json:"position"`
	Popup    string    `json:"popup"`
}

// Feature renders the custom marker as a GeoJSON point.
func (c CustomMarker) Feature() *geojson.Feature {
	f := geojson.NewFeature(c.Position)
	f.ID = c.ID
	f.Properties["kind"] = "custom"
	f.Properties["popup"] = c.Popup
	return f
}

// FeatureCollection renders survey markers followed by custom markers.
func FeatureCollection(markers []Marker, custom []CustomMarker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		fc.Append(m.Feature())
	}
	for _, c := range custom {
		fc.Append(c.Feature())
	}
	return fc
}
