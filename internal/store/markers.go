// Package store holds the classified marker set served by the HTTP API.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

// MarkerStore is an in-memory marker set. Each load replaces the previous set.
type MarkerStore struct {
	mu       sync.RWMutex
	markers  []domain.Marker
	byID     map[string]int
	loaded   bool
	loadedAt time.Time
}

// NewMarkerStore creates an empty store.
func NewMarkerStore() *MarkerStore {
	return &MarkerStore{byID: make(map[string]int)}
}

// LoadBatch replaces the stored markers, keeping their order.
func (s *MarkerStore) LoadBatch(_ context.Context, markers []domain.Marker) error {
	byID := make(map[string]int, len(markers))
	for i, m := range markers {
		byID[m.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = slices.Clone(markers)
	s.byID = byID
	s.loaded = true
	s.loadedAt = time.Now()
	return nil
}

// Markers returns a copy of the stored markers in severity order.
func (s *MarkerStore) Markers() []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.markers)
}

// Marker looks up a marker by ID.
func (s *MarkerStore) Marker(id string) (domain.Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Marker{}, false
	}
	return s.markers[i], true
}

// LoadedAt reports when the current set was loaded.
func (s *MarkerStore) LoadedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt, s.loaded
}

// CheckReadiness returns nil once a marker set has been loaded.
func (s *MarkerStore) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return errors.New("marker store is empty")
	}
	return nil
}
