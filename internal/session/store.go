// Package session keeps the server-side half of a login: a record binding an
// opaque id to a user, with a fixed absolute expiry that is never renewed.
//
// The browser only ever holds the id (signed, see auth.CookieSigner). Where the
// record lives is pluggable: memory (default), the SQLite file, or Redis.
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a session lives after login.
const DefaultTTL = time.Hour

// Session represents an authenticated user session.
// It stores only identity pointers, not auth state.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its absolute expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// New builds a fresh session for the user, expiring ttl after now.
func New(userID, username string, ttl time.Duration, now time.Time) (Session, error) {
	if userID == "" || username == "" {
		return Session{}, errors.New("session: missing user_id or username")
	}
	if ttl <= 0 {
		return Session{}, errors.New("session: ttl must be positive")
	}
	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}
	now = now.UTC()
	return Session{
		ID:        id,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Store defines how sessions are stored and retrieved.
//
// Get returns (nil, nil) when the id is unknown or the session has expired.
// Delete of an unknown id is not an error.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Sweeper is implemented by stores that don't expire records on their own.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// validate is shared by every Store.Create.
func validate(s Session) error {
	if s.ID == "" || s.UserID == "" {
		return errors.New("session: missing session_id or user_id")
	}
	if s.ExpiresAt.IsZero() {
		return errors.New("session: missing expires_at")
	}
	return nil
}
