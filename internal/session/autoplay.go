package session

import (
	"context"
	"time"
)

// StartAutoPlay rewinds auto-play to the start of the slider and runs it in
// the background, one step per interval. A running auto-play is restarted.
// It stops by itself once the slider reaches today, or when ctx ends or the
// session is closed.
func (s *Session) StartAutoPlay(ctx context.Context) error {
	s.mu.Lock()
	if !s.spec.autoPlay {
		s.mu.Unlock()
		return ErrAutoPlayUnsupported
	}
	if s.stopAuto != nil {
		s.stopAuto()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.stopAuto = cancel
	s.autoPlaying = true
	s.autoOffset = s.spec.slider.Min
	s.autoRun++
	run := s.autoRun
	interval := s.interval
	s.mu.Unlock()

	go func() {
		defer cancel()
		if err := s.runAutoPlay(ctx, run, interval); err != nil {
			s.logger.Debug("auto-play stopped", "reason", err)
		}
	}()
	return nil
}

// runAutoPlay steps immediately, then on every tick until auto-play ends.
func (s *Session) runAutoPlay(ctx context.Context, run int, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	if !s.step(ctx, run) {
		return nil
	}

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.autoRun == run {
				s.autoPlaying = false
			}
			s.mu.Unlock()
			return ctx.Err()
		case <-ticker.Chan():
			if !s.step(ctx, run) {
				return nil
			}
		}
	}
}

// step reports whether run should keep ticking.
func (s *Session) step(ctx context.Context, run int) bool {
	if ctx.Err() != nil {
		return false
	}
	snap, err := s.Handle(TickEvent{run: run})
	if err != nil || !snap.AutoPlaying {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoRun == run
}

// Close stops any running auto-play.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopAuto != nil {
		s.stopAuto()
		s.stopAuto = nil
	}
	s.autoPlaying = false
}
