package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = "http://map1{s}.vis.earthdata.nasa.gov/wmts-geo/{layer}/default/{time}/{tileMatrixSet}/{z}/{y}/{x}.{format}"

func TestLayerConfig_TileURL(t *testing.T) {
	cfg := SeaSurfaceLayer(testTemplate, "2024-04-26")

	assert.Equal(t,
		"http://map1a.vis.earthdata.nasa.gov/wmts-geo/GHRSST_L4_MUR_Sea_Surface_Temperature/default/2024-04-26/EPSG4326_1km/3/1/2.png",
		cfg.TileURL(3, 1, 2))

	// (x+y) % 3 picks the subdomain.
	assert.Contains(t, cfg.TileURL(3, 0, 1), "map1b.")
	assert.Contains(t, cfg.TileURL(3, 1, 1), "map1c.")
}

func TestLayerConfig_TileURL_NoSubdomains(t *testing.T) {
	cfg := LayerConfig{Layer: "L", Time: "2024-01-01", Format: "png", URLTemplate: "http://host{s}/{layer}/{time}/{z}/{y}/{x}.{format}"}
	assert.Equal(t, "http://host/L/2024-01-01/0/0/0.png", cfg.TileURL(0, 0, 0))
}

func TestGIBSOverlays(t *testing.T) {
	layers := GIBSOverlays(testTemplate, "2024-04-26")
	require.Len(t, layers, 3)

	assert.Equal(t, SeaSurfaceTemperature, layers[0].Layer)
	assert.Equal(t, "EPSG4326_1km", layers[0].TileMatrixSet)
	assert.Equal(t, 1, layers[0].ZIndex)

	assert.Equal(t, LandMask, layers[1].Layer)
	assert.Equal(t, "EPSG4326_250m", layers[1].TileMatrixSet)
	assert.Equal(t, 2, layers[1].ZIndex)

	assert.Equal(t, Bathymetry, layers[2].Layer)
	assert.Equal(t, "jpeg", layers[2].Format)
	assert.Equal(t, 3, layers[2].ZIndex)

	for _, l := range layers {
		assert.Equal(t, 512, l.TileSize)
		assert.Equal(t, "abc", l.Subdomains)
		assert.False(t, l.NoWrap)
		assert.Equal(t, DateKey("2024-04-26"), l.Time)
	}
}

func TestNewTileLayer(t *testing.T) {
	l := NewTileLayer(testTemplate, "2023-12-31")
	assert.Equal(t, DateKey("2023-12-31"), l.Key)
	assert.Equal(t, DateKey("2023-12-31"), l.Config.Time)
	assert.Equal(t, SeaSurfaceTemperature, l.Config.Layer)
}
