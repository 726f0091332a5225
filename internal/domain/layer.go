package domain

import (
	"strconv"
	"strings"
)

// GIBS layer identifiers used by the map.
const (
	SeaSurfaceTemperature = "GHRSST_L4_MUR_Sea_Surface_Temperature"
	LandMask              = "OSM_Land_Mask"
	Bathymetry            = "BlueMarble_ShadedRelief_Bathymetry"
)

// GIBSAttribution is shown in the map's attribution control for GIBS layers.
const GIBSAttribution = "<a href='https://wiki.earthdata.nasa.gov/display/GIBS'>NASA EOSDIS GIBS</a>"

// worldBounds stops clients from requesting tiles past the poles and the
// antimeridian, where GIBS has none.
var worldBounds = [2][2]float64{{-89.9999, -179.9999}, {89.9999, 179.9999}}

// LayerConfig is the per-layer tile source configuration handed to the map
// client. Bounds are [[south, west], [north, east]].
type LayerConfig struct {
	Name          string        `json:"name"`
	Layer         string        `json:"layer"`
	TileMatrixSet string        `json:"tileMatrixSet"`
	Time          DateKey       `json:"time,omitempty"`
	TileSize      int           `json:"tileSize"`
	Subdomains    string        `json:"subdomains"`
	Opacity       float64       `json:"opacity"`
	ZIndex        int           `json:"zIndex"`
	Bounds        [2][2]float64 `json:"bounds"`
	NoWrap        bool          `json:"noWrap"`
	Attribution   string        `json:"attribution"`
	Format        string        `json:"format"`
	URLTemplate   string        `json:"urlTemplate"`
}

// TileURL expands the URL template for one tile. The subdomain is chosen
// from (x+y) modulo the subdomain count, so a tile always maps to the same host.
func (c LayerConfig) TileURL(z, y, x int) string {
	sub := ""
	if n := len(c.Subdomains); n > 0 {
		idx := (x + y) % n
		if idx < 0 {
			idx += n
		}
		sub = string(c.Subdomains[idx])
	}
	r := strings.NewReplacer(
		"{s}", sub,
		"{layer}", c.Layer,
		"{time}", string(c.Time),
		"{tileMatrixSet}", c.TileMatrixSet,
		"{z}", strconv.Itoa(z),
		"{y}", strconv.Itoa(y),
		"{x}", strconv.Itoa(x),
		"{format}", c.Format,
	)
	return r.Replace(c.URLTemplate)
}

func gibsLayer(template, name, layer, matrixSet, format string, zIndex int, day DateKey) LayerConfig {
	return LayerConfig{
		Name:          name,
		Layer:         layer,
		TileMatrixSet: matrixSet,
		Time:          day,
		TileSize:      512,
		Subdomains:    "abc",
		Opacity:       1,
		ZIndex:        zIndex,
		Bounds:        worldBounds,
		Attribution:   GIBSAttribution,
		Format:        format,
		URLTemplate:   template,
	}
}

// SeaSurfaceLayer is the date-driven overlay swapped by the day slider.
func SeaSurfaceLayer(template string, day DateKey) LayerConfig {
	return gibsLayer(template, "Sea Surface Temperature", SeaSurfaceTemperature, "EPSG4326_1km", "png", 1, day)
}

// GIBSOverlays returns every GIBS overlay of the map for the given day, in
// z-order.
func GIBSOverlays(template string, day DateKey) []LayerConfig {
	return []LayerConfig{
		SeaSurfaceLayer(template, day),
		gibsLayer(template, "Land Mask", LandMask, "EPSG4326_250m", "png", 2, day),
		gibsLayer(template, "Geography/Ocean Depth", Bathymetry, "EPSG4326_500m", "jpeg", 3, day),
	}
}

// TileLayer is a renderable imagery layer for one day.
type TileLayer struct {
	Key    DateKey     `json:"key"`
	Config LayerConfig `json:"config"`
}

// NewTileLayer builds the sea surface temperature layer for key.
func NewTileLayer(template string, key DateKey) *TileLayer {
	return &TileLayer{Key: key, Config: SeaSurfaceLayer(template, key)}
}
