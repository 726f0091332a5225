// Package session holds the per-client map state: the anchored "today", the
// selected day, the day-keyed layer cache, and the single active layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/layercache"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnknownVariant      = errors.New("unknown slider variant")
	ErrAutoPlayUnsupported = errors.New("auto-play not supported by this slider")
)

// Session is one client's view of the map. Events are serialized; the layer
// cache is never evicted for the session's lifetime.
type Session struct {
	id       string
	variant  Variant
	spec     variantSpec
	clock    clockwork.Clock
	today    time.Time
	metrics  *observability.Metrics
	logger   *slog.Logger
	interval time.Duration

	mu          sync.Mutex
	day         time.Time
	offset      int
	layers      *layercache.Cache[*domain.TileLayer]
	surface     Surface
	label       string
	custom      []domain.CustomMarker
	autoPlaying bool
	autoOffset  int
	autoRun     int
	stopAuto    context.CancelFunc
}

// Snapshot is the client-visible session state.
type Snapshot struct {
	ID            string                `json:"id"`
	Variant       Variant               `json:"variant"`
	Today         domain.DateKey        `json:"today"`
	Day           domain.DateKey        `json:"day"`
	Label         string                `json:"label"`
	Slider        SliderSpec            `json:"slider"`
	Active        *domain.TileLayer     `json:"active,omitempty"`
	Attached      int                   `json:"attached"`
	CachedLayers  int                   `json:"cached_layers"`
	AutoPlaying   bool                  `json:"auto_playing"`
	CustomMarkers []domain.CustomMarker `json:"custom_markers"`
}

// Config carries the dependencies shared by every session.
type Config struct {
	Clock            clockwork.Clock
	URLTemplate      string
	AutoPlayInterval time.Duration
	Metrics          *observability.Metrics
	Logger           *slog.Logger
}

// New creates an idle session. "Today" is fixed now, lagged per variant.
func New(id string, variant Variant, cfg Config) (*Session, error) {
	spec, ok := variants[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	today := cfg.Clock.Now().Add(-spec.lag)
	template := cfg.URLTemplate

	var cacheOpts []layercache.Option
	if cfg.Metrics != nil {
		cacheOpts = append(cacheOpts, layercache.WithCounters(
			cfg.Metrics.LayerCache.WithLabelValues("session", "hit"),
			cfg.Metrics.LayerCache.WithLabelValues("session", "miss"),
		))
	}

	return &Session{
		id:       id,
		variant:  variant,
		spec:     spec,
		clock:    cfg.Clock,
		today:    today,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("session_id", id),
		interval: cfg.AutoPlayInterval,
		day:      today,
		offset:   spec.slider.Value,
		layers: layercache.New(func(key domain.DateKey) *domain.TileLayer {
			return domain.NewTileLayer(template, key)
		}, cacheOpts...),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Handle applies one event and returns the resulting state.
func (s *Session) Handle(ev Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues(ev.eventName()).Inc()
	}

	switch e := ev.(type) {
	case SlideEvent:
		s.offset = s.spec.slider.Clamp(e.Offset)
		s.selectDate(domain.DayOffset(s.today, s.offset))
	case TickEvent:
		s.tick(e.run)
	case ClickEvent:
		s.custom = append(s.custom, domain.CustomMarker{
			ID:       uuid.NewString(),
			Position: orb.Point{e.Lon, e.Lat},
			Popup:    domain.CustomMarkerPrompt,
		})
	default:
		return Snapshot{}, fmt.Errorf("unsupported event %T", ev)
	}

	return s.snapshot(), nil
}

// Snapshot returns the current state without changing it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// selectDate swaps the active layer for d's layer and relabels. It always
// lands in the active state regardless of what was attached before.
func (s *Session) selectDate(d time.Time) {
	s.day = d
	layer := s.layers.GetOrCreate(d)
	s.surface.Activate(layer)
	s.label = layer.Key.String()
}

// tick runs one auto-play step: show the current auto-play offset, then
// advance it. Auto-play ends once the offset is no longer in the past.
// A non-zero run that is not the current one is stale and ignored.
func (s *Session) tick(run int) {
	if !s.autoPlaying || (run != 0 && run != s.autoRun) {
		return
	}
	if s.autoOffset >= s.spec.slider.Max {
		s.autoPlaying = false
		return
	}

	s.selectDate(domain.DayOffset(s.today, s.autoOffset))
	s.autoOffset += s.spec.autoPlayStep
	s.offset = s.spec.slider.Clamp(s.autoOffset)

	if s.autoOffset >= s.spec.slider.Max {
		s.autoPlaying = false
		s.logger.Debug("auto-play finished", "day", s.label)
	}
}

func (s *Session) snapshot() Snapshot {
	slider := s.spec.slider
	slider.Value = s.offset

	custom := make([]domain.CustomMarker, len(s.custom))
	copy(custom, s.custom)

	return Snapshot{
		ID:            s.id,
		Variant:       s.variant,
		Today:         domain.NewDateKey(s.today),
		Day:           domain.NewDateKey(s.day),
		Label:         s.label,
		Slider:        slider,
		Active:        s.surface.Active(),
		Attached:      s.surface.Attached(),
		CachedLayers:  s.layers.Len(),
		AutoPlaying:   s.autoPlaying,
		CustomMarkers: custom,
	}
}
