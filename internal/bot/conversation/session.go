package conversation

import (
	"sync"
	"time"
)

// Sessions are dropped after 30 minutes without input.
const defaultSessionTTL = 30 * time.Minute

// Session is the per-user dialog state: which flow, which state, and the
// answers collected so far.
type Session struct {
	UserID int64
	ChatID int64

	Flow    string
	Current StateID

	// Scratch holds the flow's typed payload struct. Flows type-assert it.
	Scratch any

	expiresAt time.Time
}

// sessionStore keeps at most one live session per user. Expired sessions are
// dropped lazily on access.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]*Session

	now func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{
		ttl:      ttl,
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// put stores the session and restarts its TTL.
func (s *sessionStore) put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.expiresAt = s.now().Add(s.ttl)
	s.sessions[session.UserID] = session
}

// get returns the user's live session, refreshing its TTL.
func (s *sessionStore) get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	if s.now().After(session.expiresAt) {
		delete(s.sessions, userID)
		return nil, false
	}

	session.expiresAt = s.now().Add(s.ttl)
	return session, true
}

// drop removes the user's session. Reports whether one existed.
func (s *sessionStore) drop(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok
}
