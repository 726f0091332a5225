package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Store keeps live sessions and expires them after a period without access.
// Expired sessions have their auto-play stopped.
type Store struct {
	cfg   Config
	cache *ttlcache.Cache[string, *Session]
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration, cfg Config) *Store {
	cache := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)
	st := &Store{cfg: cfg, cache: cache}

	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		item.Value().Close()
		// Eviction may run under the cache lock; count once it is released.
		go st.observeActive()
		if cfg.Logger != nil {
			cfg.Logger.Debug("session evicted", "session_id", item.Key(), "reason", reason)
		}
	})
	return st
}

// Run purges expired sessions until ctx is cancelled.
func (st *Store) Run(ctx context.Context) {
	go st.cache.Start()
	<-ctx.Done()
	st.cache.Stop()
	st.cache.DeleteAll()
}

// Create starts a new idle session.
func (st *Store) Create(variant Variant) (*Session, error) {
	s, err := New(uuid.NewString(), variant, st.cfg)
	if err != nil {
		return nil, err
	}
	st.cache.Set(s.ID(), s, ttlcache.DefaultTTL)
	st.observeActive()
	return s, nil
}

// Get returns a live session and extends its TTL.
func (st *Store) Get(id string) (*Session, error) {
	item := st.cache.Get(id)
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return item.Value(), nil
}

// Delete ends a session.
func (st *Store) Delete(id string) {
	st.cache.Delete(id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int { return st.cache.Len() }

// observeActive sets the active-sessions gauge from the live session count.
func (st *Store) observeActive() {
	if st.cfg.Metrics != nil {
		st.cfg.Metrics.ActiveSessions.Set(float64(st.Len()))
	}
}
