package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentora/internal/domain/user"
)

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrUserRequired    = errors.New("auth: user is required")
	ErrTTLInvalid      = errors.New("auth: ttl must be positive")
	ErrIssueTimeZero   = errors.New("auth: issue time is required")
	ErrSessionNotFound = errors.New("auth: session not found")
)

// Token is the opaque bearer value a client presents.
type Token string

// Session binds a token to a user until ExpiresAt. The user's role is not
// copied here; resolving a token always reads the current user.
type Session struct {
	Token     Token
	UserID    user.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue opens a session at now that lasts ttl.
func Issue(token Token, userID user.ID, now time.Time, ttl time.Duration) (*Session, error) {
	trimmed := Token(strings.TrimSpace(string(token)))
	switch {
	case trimmed == "":
		return nil, ErrTokenRequired
	case strings.TrimSpace(string(userID)) == "":
		return nil, ErrUserRequired
	case ttl <= 0:
		return nil, ErrTTLInvalid
	case now.IsZero():
		return nil, ErrIssueTimeZero
	}
	now = now.UTC()
	return &Session{
		Token:     trimmed,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Expired reports whether the session is no longer valid at the given instant.
// A session is dead from ExpiresAt onwards.
func (s *Session) Expired(at time.Time) bool {
	return !at.Before(s.ExpiresAt)
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	DeleteByUser(ctx context.Context, userID user.ID) error
}
