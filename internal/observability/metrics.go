package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coral_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	// Marker pipeline metrics.
	RowsRead        prometheus.Counter
	RowsSkipped     prometheus.Counter
	MarkersEmitted  prometheus.Counter
	PipelineRunning prometheus.Gauge
	LoadDuration    prometheus.Histogram

	// Layer cache metrics.
	LayerCache *prometheus.CounterVec // labels: cache={session,shared}, result={hit,miss}

	// Session metrics.
	ActiveSessions prometheus.Gauge
	SessionEvents  *prometheus.CounterVec // labels: event={slide,tick,click}

	// Tile proxy metrics.
	TileRequests      *prometheus.CounterVec   // labels: source={gibs,mapbox}, outcome={success,error,rejected,cancelled}
	TileCache         *prometheus.CounterVec   // labels: source={gibs,mapbox}, result={hit,miss}
	TileFetchDuration *prometheus.HistogramVec // labels: source={gibs,mapbox}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsSkipped,
		m.MarkersEmitted,
		m.PipelineRunning,
		m.LoadDuration,
		m.LayerCache,
		m.ActiveSessions,
		m.SessionEvents,
		m.TileRequests,
		m.TileCache,
		m.TileFetchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total data rows read from the survey file.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Total rows dropped for missing coordinates.",
		}),
		MarkersEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_emitted_total",
			Help:      "Total classified markers handed to sinks.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the marker pipeline is loading, 0 otherwise.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "marker_load_duration_seconds",
			Help:      "Duration of a complete read-classify-load cycle.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		LayerCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_cache_total",
			Help:      "Layer cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live map sessions.",
		}),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events handled by type.",
		}, []string{"event"}),
		TileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_requests_total",
			Help:      "Upstream tile requests by source and outcome.",
		}, []string{"source", "outcome"}),
		TileCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_total",
			Help:      "Tile byte cache lookups by source and result.",
		}, []string{"source", "result"}),
		TileFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tile_fetch_duration_seconds",
			Help:      "Upstream tile request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
	}
}
