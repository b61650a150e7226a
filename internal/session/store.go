// internal/session/store.go
//
// In-memory visitor sessions.
//
// Context
// -------
// Each browser gets a random id in the `complaint_session` cookie.  The
// Store maps that id to a Holder built by the Factory, so form state
// survives the redirect-after-post cycle without any persisted storage.
//
// Two limits keep memory bounded:
//
//   - an idle TTL, enforced by a sweeper goroutine every SweepInterval
//   - a hard entry cap, enforced by the LRU on insert
//
// Each eviction is logged and counted.  Close stops the sweeper.
//
// Notes
// -----
// • Sessions are never shared between processes.  A restart forgets every
//   in-progress form, which is acceptable for a single short page.
// • Oxford commas, two spaces after periods.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/complaintdesk/internal/cache"
	"github.com/yanizio/complaintdesk/internal/metrics"
)

// CookieName is the session cookie.
const CookieName = "complaint_session"

// Static defaults, overridden from config.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	SweepInterval = time.Minute
)

// Factory builds a fresh Holder for a new visitor.  ctx is the mounting
// request; a Factory may start the handshake with it.
type Factory func(ctx context.Context) (*Holder, error)

type entry struct {
	holder   *Holder
	lastSeen time.Time
}

// Store owns all live sessions.
type Store struct {
	factory Factory
	idleTTL time.Duration
	log     *zap.SugaredLogger
	now     func() time.Time

	mu  sync.Mutex
	lru *cache.LRU[string, *entry]

	// reason for the eviction currently in progress, read by the LRU hook
	evictReason string

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTTL overrides IdleTTL.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithStoreLogger attaches a logger.
func WithStoreLogger(l *zap.SugaredLogger) StoreOption {
	return func(s *Store) { s.log = l }
}

// NewStore constructs a Store and starts the sweeper.  interval ≤ 0 uses
// SweepInterval; maxEntries ≤ 0 uses MaxEntries.
func NewStore(f Factory, maxEntries int, interval time.Duration, opts ...StoreOption) *Store {
	if maxEntries <= 0 {
		maxEntries = MaxEntries
	}
	if interval <= 0 {
		interval = SweepInterval
	}
	s := &Store{
		factory: f,
		idleTTL: IdleTTL,
		now:     time.Now,
		lru:     cache.New[string, *entry](maxEntries),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.S()
	}
	s.lru.OnEvict = s.onEvict

	s.wg.Add(1)
	go s.sweepLoop(interval)
	return s
}

func (s *Store) onEvict(id string, _ *entry) {
	metrics.ActiveSessions.Dec()
	if s.evictReason == "" {
		return
	}
	metrics.SessionEvictTotal.WithLabelValues(s.evictReason).Inc()
	s.log.Debugw("session evicted", "session", id, "reason", s.evictReason)
}

// Get returns the Holder for id, if live, and refreshes its idle clock.
func (s *Store) Get(id string) (*Holder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(id)
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.holder, true
}

// Create mounts a new session and returns its id.
func (s *Store) Create(ctx context.Context) (string, *Holder, error) {
	h, err := s.factory(ctx)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictReason = "capacity"
	s.lru.Add(id, &entry{holder: h, lastSeen: s.now()})
	s.evictReason = ""
	metrics.ActiveSessions.Inc()
	return id, h, nil
}

// Delete forgets id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Resolve returns the caller's session, creating one and setting the
// cookie when the request has none or its id is unknown.
func (s *Store) Resolve(w http.ResponseWriter, r *http.Request) (string, *Holder, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if h, ok := s.Get(c.Value); ok {
			return c.Value, h, nil
		}
	}
	id, h, err := s.Create(r.Context())
	if err != nil {
		return "", nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id, h, nil
}

// Forget drops the caller's session, if any, and expires the cookie.
func (s *Store) Forget(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		s.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Lookup returns the caller's session without creating one.
func (s *Store) Lookup(r *http.Request) (string, *Holder, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", nil, false
	}
	h, ok := s.Get(c.Value)
	return c.Value, h, ok
}

// Sweep drops sessions idle longer than the TTL.  Returns how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	n := 0
	s.evictReason = "idle"
	for {
		_, e, ok := s.lru.Oldest()
		if !ok || !e.lastSeen.Before(cutoff) {
			break
		}
		if e.holder.Snapshot().Busy {
			// Busy sessions stay until their send returns.
			break
		}
		s.lru.RemoveOldest()
		n++
	}
	s.evictReason = ""
	return n
}

func (s *Store) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.log.Infow("idle sessions evicted", "count", n)
			}
		}
	}
}

// Close stops the sweeper.  Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}
