package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrSessionNotFound is returned by SessionStore for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind a session token.
type Session struct {
	ID        string
	User      User
	IDToken   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore persists sessions until they expire.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	// Refresh overwrites the user of an existing session. It returns
	// ErrSessionNotFound when the session was deleted or has expired.
	Refresh(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
