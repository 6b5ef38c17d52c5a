package memory

import (
	"sync"

	"smartquiz/internal/app"
)

// SessionStore is the in-memory implementation of app.SessionStore, keyed by
// chat id. The store lock covers only map bookkeeping; per-user atomicity is
// the Session's own lock. Sessions have no expiry: an abandoned one stays
// until the user exits or the process restarts.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*app.Session)}
}

func (s *SessionStore) Get(chatID int64) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[chatID]
	return session, ok
}

func (s *SessionStore) Put(chatID int64, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

func (s *SessionStore) Delete(chatID int64) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	if ok {
		delete(s.sessions, chatID)
	}
	return session, ok
}

// Len reports how many sessions are held, for tests and introspection.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
