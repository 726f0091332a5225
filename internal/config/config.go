package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultGIBSTemplate is the NASA GIBS WMTS tile address. {s} is the
// subdomain letter, {format} the image extension of the layer.
const DefaultGIBSTemplate = "http://map1{s}.vis.earthdata.nasa.gov/wmts-geo/{layer}/default/{time}/{tileMatrixSet}/{z}/{y}/{x}.{format}"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataFile is the coral survey CSV loaded once at startup.
	DataFile string

	GIBSTemplate  string
	GIBSTimeout   time.Duration
	TileCacheSize int

	// LayerCacheSize bounds the shared layer cache used by the tile proxy.
	// Session caches are never bounded.
	LayerCacheSize int

	SessionTTL       time.Duration
	AutoPlayInterval time.Duration

	// Mapbox base-layer configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	// Optional Kafka marker publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaMarkerTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	gibsTimeout, err := parsePositiveDuration("GIBS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := parsePositiveDuration("SESSION_TTL", "30m")
	if err != nil {
		return nil, err
	}
	// 50 animation frames at 60 fps.
	autoPlayInterval, err := parsePositiveDuration("AUTOPLAY_INTERVAL", "833ms")
	if err != nil {
		return nil, err
	}

	tileCacheSize, err := parsePositiveInt("TILE_CACHE_SIZE", 512)
	if err != nil {
		return nil, err
	}
	layerCacheSize, err := parsePositiveInt("LAYER_CACHE_SIZE", 400)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataFile: sharedcfg.EnvOrDefault("DATA_FILE", "data/coral_bleaching.csv"),

		GIBSTemplate:  sharedcfg.EnvOrDefault("GIBS_URL_TEMPLATE", DefaultGIBSTemplate),
		GIBSTimeout:   gibsTimeout,
		TileCacheSize: tileCacheSize,

		LayerCacheSize: layerCacheSize,

		SessionTTL:       sessionTTL,
		AutoPlayInterval: autoPlayInterval,

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaMarkerTopic: sharedcfg.EnvOrDefault("KAFKA_MARKER_TOPIC", "coral-markers"),
	}

	if cfg.DataFile == "" {
		return nil, errors.New("DATA_FILE is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaMarkerTopic == "" {
		return nil, errors.New("KAFKA_MARKER_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
