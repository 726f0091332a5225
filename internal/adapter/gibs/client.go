// Package gibs fetches date-stamped overlay tiles from NASA GIBS.
package gibs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
)

const (
	source       = "gibs"
	maxTileBytes = 8 << 20
)

// Client implements domain.TileSource against the GIBS WMTS endpoint.
type Client struct {
	template   string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GIBS tile client for the given URL template.
func NewClient(template string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        source,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		template:   template,
		httpClient: &http.Client{Timeout: timeout},
		circuit:    cb,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchTile downloads one overlay tile for ref.Day. An empty ref.Layer selects
// the sea surface temperature overlay.
func (c *Client) FetchTile(ctx context.Context, ref domain.TileRef) (domain.Tile, error) {
	if _, err := domain.ParseDateKey(string(ref.Day)); err != nil {
		return domain.Tile{}, fmt.Errorf("%w: %w", domain.ErrInvalidTile, err)
	}
	if err := domain.ValidateGeographicTile(ref.Z, ref.X, ref.Y); err != nil {
		return domain.Tile{}, err
	}
	layer, err := domain.FindGIBSOverlay(c.template, ref.Layer, ref.Day)
	if err != nil {
		return domain.Tile{}, err
	}

	u := layer.TileURL(ref.Z, ref.Y, ref.X)
	start := time.Now()
	tile, err := c.doRequest(ctx, u)
	c.metrics.TileFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.TileRequests.WithLabelValues(source, "success").Inc()
		c.logger.Debug("gibs tile fetched",
			"layer", layer.Layer, "day", ref.Day, "z", ref.Z, "x", ref.X, "y", ref.Y,
			"size", humanize.Bytes(uint64(len(tile.Data))))
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		c.metrics.TileRequests.WithLabelValues(source, "rejected").Inc()
	case ctx.Err() != nil:
		c.metrics.TileRequests.WithLabelValues(source, "cancelled").Inc()
	default:
		c.metrics.TileRequests.WithLabelValues(source, "error").Inc()
	}
	return tile, err
}

// fetchResult carries a response through the circuit breaker. A missing tile
// and a request the caller abandoned are not breaker failures.
type fetchResult struct {
	tile      domain.Tile
	notFound  bool
	cancelled error
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Tile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tile{}, err
	}
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fetchResult{cancelled: ctxErr}, nil
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		defer resp.Body.Close() //nolint:errcheck // body fully consumed or discarded

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fetchResult{notFound: true}, nil
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, body)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fetchResult{cancelled: ctxErr}, nil
			}
			return nil, fmt.Errorf("%w: read body: %w", domain.ErrUpstream, err)
		}
		return fetchResult{tile: domain.Tile{Data: data, ContentType: resp.Header.Get("Content-Type")}}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.Tile{}, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return domain.Tile{}, err
	}

	res, ok := result.(fetchResult)
	if !ok {
		return domain.Tile{}, fmt.Errorf("%w: unexpected result type %T", domain.ErrUpstream, result)
	}
	if res.cancelled != nil {
		return domain.Tile{}, res.cancelled
	}
	if res.notFound {
		return domain.Tile{}, domain.ErrTileNotFound
	}
	return res.tile, nil
}
