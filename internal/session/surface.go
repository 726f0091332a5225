package session

import "github.com/couchcryptid/coral-bleaching-map/internal/domain"

// Surface is the set of imagery layers currently attached to the map.
type Surface struct {
	attached []*domain.TileLayer
}

// Activate detaches every attached layer and attaches l, leaving exactly one.
func (s *Surface) Activate(l *domain.TileLayer) {
	s.DetachAll()
	s.attached = append(s.attached, l)
}

// DetachAll removes every attached layer.
func (s *Surface) DetachAll() {
	clear(s.attached)
	s.attached = s.attached[:0]
}

// Active returns the attached layer, or nil while idle.
func (s *Surface) Active() *domain.TileLayer {
	if len(s.attached) == 0 {
		return nil
	}
	return s.attached[len(s.attached)-1]
}

// Attached returns how many layers are attached.
func (s *Surface) Attached() int { return len(s.attached) }
