package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/paulmach/orb/maptile"
)

// Mapbox raster base layers offered under the overlays.
const (
	MapboxStreetsSatellite = "mapbox.streets-satellite"
	MapboxSatellite        = "mapbox.satellite"
)

// MapboxBaseLayers lists the base layers in menu order; the first is the default.
var MapboxBaseLayers = []string{MapboxStreetsSatellite, MapboxSatellite}

// gibsMaxZoom is the deepest tile matrix level served for the geographic overlays.
const gibsMaxZoom = 8

const mercatorMaxZoom = 22

var (
	// ErrInvalidTile is returned for tile coordinates outside the layer's grid
	// or an unknown layer name.
	ErrInvalidTile = errors.New("invalid tile")
	// ErrTileNotFound is returned when the upstream has no tile at the address.
	ErrTileNotFound = errors.New("tile not found")
	// ErrUpstream is returned when the upstream fails or answers unexpectedly.
	ErrUpstream = errors.New("tile upstream failed")
	// ErrUpstreamUnavailable is returned while requests to the upstream are
	// being refused after repeated failures.
	ErrUpstreamUnavailable = errors.New("tile upstream unavailable")
)

// Tile is one encoded image tile.
type Tile struct {
	Data        []byte
	ContentType string
}

// TileRef addresses one tile of one layer. Day is empty for undated layers.
type TileRef struct {
	Layer string
	Day   DateKey
	Z     int
	X     int
	Y     int
}

// CacheKey identifies the tile across layers and days.
func (r TileRef) CacheKey() string {
	return fmt.Sprintf("%s/%s/%d/%d/%d", r.Layer, r.Day, r.Z, r.X, r.Y)
}

// TileSource fetches tiles from an upstream imagery service.
type TileSource interface {
	FetchTile(ctx context.Context, ref TileRef) (Tile, error)
}

// ParseTileCoords converts path segments to integer tile coordinates.
func ParseTileCoords(z, x, y string) (int, int, int, error) {
	zi, errZ := strconv.Atoi(z)
	xi, errX := strconv.Atoi(x)
	yi, errY := strconv.Atoi(y)
	if err := errors.Join(errZ, errX, errY); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %w", ErrInvalidTile, err)
	}
	return zi, xi, yi, nil
}

// ValidateGeographicTile checks z/x/y against the EPSG:4326 tile grid the
// GIBS overlays use: 2^(z+1) columns by 2^z rows.
func ValidateGeographicTile(z, x, y int) error {
	if z < 0 || z > gibsMaxZoom {
		return fmt.Errorf("%w: zoom %d outside 0..%d", ErrInvalidTile, z, gibsMaxZoom)
	}
	cols, rows := 1<<(z+1), 1<<z
	if x < 0 || x >= cols || y < 0 || y >= rows {
		return fmt.Errorf("%w: %d/%d/%d outside the geographic grid", ErrInvalidTile, z, x, y)
	}
	return nil
}

// MercatorTile converts z/x/y to a web mercator tile, checking its range.
func MercatorTile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > mercatorMaxZoom {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d outside 0..%d", ErrInvalidTile, z, mercatorMaxZoom)
	}
	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, fmt.Errorf("%w: %d/%d/%d outside the mercator grid", ErrInvalidTile, z, x, y)
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// IsMapboxBaseLayer reports whether id is one of the offered base layers.
func IsMapboxBaseLayer(id string) bool {
	return slices.Contains(MapboxBaseLayers, id)
}

// FindGIBSOverlay returns the overlay named by layer for day. An empty layer
// selects the sea surface temperature overlay.
func FindGIBSOverlay(template, layer string, day DateKey) (LayerConfig, error) {
	if layer == "" {
		layer = SeaSurfaceTemperature
	}
	for _, cfg := range GIBSOverlays(template, day) {
		if cfg.Layer == layer {
			return cfg, nil
		}
	}
	return LayerConfig{}, fmt.Errorf("%w: unknown layer %q", ErrInvalidTile, layer)
}
