package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zalepa/cocstats/view"
)

// CookieName carries the session id.
const CookieName = "cocstats_session"

// session is one browser's view. Handlers hold mu for the whole action so
// each one is applied atomically.
type session struct {
	mu       sync.Mutex
	view     *view.Session
	lastSeen time.Time
}

type sessionTable struct {
	mu      sync.Mutex
	entries map[string]*session
	ttl     time.Duration
	create  func() *view.Session
	now     func() time.Time
}

func newSessionTable(ttl time.Duration, create func() *view.Session) *sessionTable {
	return &sessionTable{
		entries: make(map[string]*session),
		ttl:     ttl,
		create:  create,
		now:     time.Now,
	}
}

// acquire returns the caller's session, locked, creating it and setting the
// cookie when the request has none or an unknown one. The caller must
// unlock it.
func (t *sessionTable) acquire(w http.ResponseWriter, r *http.Request) *session {
	t.mu.Lock()
	now := t.now()
	t.evictLocked(now)

	var s *session
	if c, err := r.Cookie(CookieName); err == nil {
		s = t.entries[c.Value]
	}
	if s == nil {
		id := uuid.NewString()
		s = &session{view: t.create()}
		t.entries[id] = s
		activeSessions.Set(float64(len(t.entries)))
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	s.lastSeen = now
	t.mu.Unlock()

	s.mu.Lock()
	return s
}

func (t *sessionTable) evictLocked(now time.Time) {
	if t.ttl <= 0 {
		return
	}
	for id, s := range t.entries {
		if now.Sub(s.lastSeen) > t.ttl {
			delete(t.entries, id)
		}
	}
	activeSessions.Set(float64(len(t.entries)))
}

func (t *sessionTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
