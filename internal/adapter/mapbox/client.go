// Package mapbox fetches raster base-layer tiles from the Mapbox tile API.
package mapbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
)

const (
	source       = "mapbox"
	maxTileBytes = 8 << 20
)

// Client implements domain.TileSource using the Mapbox raster tiles API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox raster tile client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/v4",
		metrics: metrics,
		logger:  logger,
	}
}

// FetchTile downloads one base-layer tile. ref.Layer is the Mapbox tileset id;
// ref.Day is ignored.
func (c *Client) FetchTile(ctx context.Context, ref domain.TileRef) (domain.Tile, error) {
	if !domain.IsMapboxBaseLayer(ref.Layer) {
		return domain.Tile{}, fmt.Errorf("%w: unknown base layer %q", domain.ErrInvalidTile, ref.Layer)
	}
	tile, err := domain.MercatorTile(ref.Z, ref.X, ref.Y)
	if err != nil {
		return domain.Tile{}, err
	}

	// Mapbox tile paths are z/x/y.
	u := fmt.Sprintf("%s/%s/%d/%d/%d.png", c.baseURL, url.PathEscape(ref.Layer), tile.Z, tile.X, tile.Y)
	params := url.Values{"access_token": {c.token}}

	start := time.Now()
	out, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.TileFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if ctx.Err() != nil {
			outcome = "cancelled"
		}
		c.metrics.TileRequests.WithLabelValues(source, outcome).Inc()
		return domain.Tile{}, err
	}

	c.metrics.TileRequests.WithLabelValues(source, "success").Inc()
	c.logger.Debug("mapbox tile fetched", "layer", ref.Layer, "tile", tile,
		"size", humanize.Bytes(uint64(len(out.Data))))
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Tile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Tile{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Tile{}, ctxErr
		}
		return domain.Tile{}, fmt.Errorf("%w: mapbox tile request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully consumed or discarded

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Tile{}, domain.ErrTileNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Tile{}, fmt.Errorf("%w: mapbox API error: status %d: %s", domain.ErrUpstream, resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return domain.Tile{}, fmt.Errorf("%w: read body: %w", domain.ErrUpstream, err)
	}
	return domain.Tile{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
