// Command coralmap serves the coral bleaching map API: survey markers, the
// day-indexed imagery layers, per-client slider sessions and the tile proxy.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/coral-bleaching-map/internal/adapter/csvfile"
	"github.com/couchcryptid/coral-bleaching-map/internal/adapter/gibs"
	httpadapter "github.com/couchcryptid/coral-bleaching-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/coral-bleaching-map/internal/adapter/kafka"
	"github.com/couchcryptid/coral-bleaching-map/internal/adapter/mapbox"
	"github.com/couchcryptid/coral-bleaching-map/internal/adapter/tilecache"
	"github.com/couchcryptid/coral-bleaching-map/internal/config"
	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/layercache"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
	"github.com/couchcryptid/coral-bleaching-map/internal/pipeline"
	"github.com/couchcryptid/coral-bleaching-map/internal/session"
	"github.com/couchcryptid/coral-bleaching-map/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Survey markers: CSV -> classify -> store (+ Kafka when enabled).
	markers := store.NewMarkerStore()
	loaders := []pipeline.MarkerLoader{markers}
	var writer *kafkaadapter.MarkerWriter
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewMarkerWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka marker publishing enabled", "topic", cfg.KafkaMarkerTopic, "brokers", cfg.KafkaBrokers)
	}
	survey := csvfile.NewReader(cfg.DataFile)
	logger.Info("survey source", "path", survey.Path())
	p := pipeline.New(
		survey,
		pipeline.NewTransformer(logger),
		logger, metrics,
		loaders...,
	)

	// Tile sources.
	gibsSource, err := tilecache.New(
		gibs.NewClient(cfg.GIBSTemplate, cfg.GIBSTimeout, metrics, logger),
		cfg.TileCacheSize,
		metrics.TileCache.WithLabelValues("gibs", "hit"),
		metrics.TileCache.WithLabelValues("gibs", "miss"),
	)
	if err != nil {
		logger.Error("failed to create gibs tile cache", "error", err)
		os.Exit(1)
	}

	var baseSource domain.TileSource
	if cfg.MapboxEnabled {
		cached, err := tilecache.New(
			mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger),
			cfg.TileCacheSize,
			metrics.TileCache.WithLabelValues("mapbox", "hit"),
			metrics.TileCache.WithLabelValues("mapbox", "miss"),
		)
		if err != nil {
			logger.Error("failed to create mapbox tile cache", "error", err)
			os.Exit(1)
		}
		baseSource = cached
		logger.Info("mapbox base layers enabled", "cache_size", cfg.TileCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox base layers disabled")
	}

	// Shared per-day overlay configs, bounded; session caches are not.
	template := cfg.GIBSTemplate
	overlays := func(key domain.DateKey) []domain.LayerConfig {
		return domain.GIBSOverlays(template, key)
	}
	layers := layercache.New(overlays,
		layercache.WithMaxEntries(cfg.LayerCacheSize),
		layercache.WithCounters(
			metrics.LayerCache.WithLabelValues("shared", "hit"),
			metrics.LayerCache.WithLabelValues("shared", "miss"),
		),
	)

	sessions := session.NewStore(cfg.SessionTTL, session.Config{
		Clock:            clock,
		URLTemplate:      cfg.GIBSTemplate,
		AutoPlayInterval: cfg.AutoPlayInterval,
		Metrics:          metrics,
		Logger:           logger,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:    p,
		Markers:  markers,
		Sessions: sessions,
		Layers:   layers,
		GIBS:     gibsSource,
		Mapbox:   baseSource,
		Clock:    clock,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Expire idle sessions.
	go sessions.Run(ctx)

	// Load survey markers.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
