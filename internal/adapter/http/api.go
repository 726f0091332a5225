package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/session"
)

const maxBodyBytes = 1 << 16

func (s *Server) routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/markers", s.handleMarkers)
		r.Get("/markers/{id}", s.handleMarker)
		r.Get("/layers", s.handleLayerCatalog)
		r.Get("/layers/{date}", s.handleLayersForDate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/slide", s.handleSlide)
				r.Post("/click", s.handleClick)
				r.Post("/autoplay", s.handleAutoPlay)
			})
		})
	})

	r.Get("/tiles/{date}/{z}/{y}/{x}", s.handleGIBSTile)
	r.Get("/basemap/{id}/{z}/{x}/{y}", s.handleBaseTile)
}

// --- markers ---

// handleMarkers serves the survey markers, plus a session's custom markers
// when ?session= is given. The survey set alone is conditional on its load
// time.
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	var custom []domain.CustomMarker
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err := s.deps.Sessions.Get(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		custom = sess.Snapshot().CustomMarkers
	} else if loadedAt, ok := s.deps.Markers.LoadedAt(); ok {
		loadedAt = loadedAt.UTC().Truncate(time.Second)
		if since, err := http.ParseTime(r.Header.Get("If-Modified-Since")); err == nil && !loadedAt.After(since) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Last-Modified", loadedAt.Format(http.TimeFormat))
	}

	fc := domain.FeatureCollection(s.deps.Markers.Markers(), custom)
	data, err := fc.MarshalJSON()
	if err != nil {
		s.writeError(w, fmt.Errorf("encode markers: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleMarker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := s.deps.Markers.Marker(id)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %s", errMarkerNotFound, id))
		return
	}
	data, err := m.Feature().MarshalJSON()
	if err != nil {
		s.writeError(w, fmt.Errorf("encode marker: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- layers ---

type baseLayer struct {
	ID          string `json:"id"`
	URLTemplate string `json:"urlTemplate"`
}

type layerCatalog struct {
	Day        domain.DateKey       `json:"day"`
	Overlays   []domain.LayerConfig `json:"overlays"`
	BaseLayers []baseLayer          `json:"baseLayers"`
}

// handleLayerCatalog lists the overlays for yesterday, the most recent day
// GIBS reliably has imagery for, and the proxied base layers.
func (s *Server) handleLayerCatalog(w http.ResponseWriter, _ *http.Request) {
	day := domain.NewDateKey(domain.DayOffset(s.deps.Clock.Now(), -1))
	catalog := layerCatalog{
		Day:        day,
		Overlays:   s.deps.Layers.Get(day),
		BaseLayers: []baseLayer{},
	}
	if s.deps.Mapbox != nil {
		for _, id := range domain.MapboxBaseLayers {
			catalog.BaseLayers = append(catalog.BaseLayers, baseLayer{
				ID:          id,
				URLTemplate: "/basemap/" + id + "/{z}/{x}/{y}",
			})
		}
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleLayersForDate(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseDateKey(chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Layers.Get(key))
}

// --- sessions ---

type slideRequest struct {
	Offset *int `json:"offset" validate:"required"`
}

type clickRequest struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

// handleCreateSession starts a session and shows today's layer, as the map
// does on load.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	variant, err := session.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.deps.Sessions.Create(variant)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := sess.Handle(session.SlideEvent{Offset: 0})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.deps.Sessions.Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.deps.Sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	var req slideRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.dispatch(w, r, session.SlideEvent{Offset: *req.Offset})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.dispatch(w, r, session.ClickEvent{Lat: *req.Lat, Lon: *req.Lon})
}

// dispatch validates ev and applies it to the session named in the path.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev session.Event) {
	if err := s.validate.Struct(ev); err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := sess.Handle(ev)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Auto-play outlives the request; it ends with the session.
	if err := sess.StartAutoPlay(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sess.Snapshot())
}

// --- tiles ---

func (s *Server) handleGIBSTile(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseDateKey(chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	z, x, y, err := domain.ParseTileCoords(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	tile, err := s.deps.GIBS.FetchTile(r.Context(), domain.TileRef{
		Layer: r.URL.Query().Get("layer"),
		Day:   key,
		Z:     z,
		X:     x,
		Y:     y,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Imagery for a past day does not change.
	writeTile(w, tile, "public, max-age=86400")
}

func (s *Server) handleBaseTile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Mapbox == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "base layers are disabled"})
		return
	}
	z, x, y, err := domain.ParseTileCoords(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	tile, err := s.deps.Mapbox.FetchTile(r.Context(), domain.TileRef{
		Layer: chi.URLParam(r, "id"),
		Z:     z,
		X:     x,
		Y:     y,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeTile(w, tile, "public, max-age=3600")
}

func writeTile(w http.ResponseWriter, tile domain.Tile, cacheControl string) {
	if tile.ContentType != "" {
		w.Header().Set("Content-Type", tile.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(tile.Data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(tile.Data)
}

// --- helpers ---

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return err
	}
	return nil
}

var (
	errBadRequest     = errors.New("malformed request body")
	errMarkerNotFound = errors.New("marker not found")
)

// statusClientClosedRequest reports a request the client abandoned before the
// response was ready.
const statusClientClosedRequest = 499

// statusFor maps domain and session errors to HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, domain.ErrTileNotFound),
		errors.Is(err, errMarkerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidTile),
		errors.Is(err, session.ErrUnknownVariant),
		errors.Is(err, errBadRequest),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrAutoPlayUnsupported):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
