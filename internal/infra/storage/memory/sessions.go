package memory

import (
	"context"
	"sync"
	"time"

	domainauth "rentora/internal/domain/auth"
	domainuser "rentora/internal/domain/user"
)

// SessionStore holds bearer sessions by token. Expiry is judged by the
// caller; PruneExpired drops what the caller's clock says is stale.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domainauth.Token]domainauth.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[domainauth.Token]domainauth.Session{}}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil || session.Token == "" {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	s.sessions[session.Token] = *session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return &session, nil
}

// Delete is a no-op for unknown tokens.
func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	s.removeWhere(func(session domainauth.Session) bool { return session.UserID == userID })
	return nil
}

// PruneExpired removes sessions expired at the given instant and reports how many went.
func (s *SessionStore) PruneExpired(at time.Time) int {
	return s.removeWhere(func(session domainauth.Session) bool { return session.Expired(at) })
}

func (s *SessionStore) removeWhere(match func(domainauth.Session) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if match(session) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
