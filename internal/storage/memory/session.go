package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/storefront/internal/domain/auth"
)

var _ auth.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in memory and drops them once expired.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]auth.Session
	now      func() time.Time
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]auth.Session), now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, sess *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *SessionStore) Refresh(_ context.Context, sess *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sess.ID]
	if !ok || (!cur.ExpiresAt.IsZero() && !s.now().Before(cur.ExpiresAt)) {
		return auth.ErrSessionNotFound
	}
	cur.User = sess.User
	s.sessions[sess.ID] = cur
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	if !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, auth.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
