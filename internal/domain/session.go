package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session represents a user session
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionRepository defines the interface for session data access.
// GetByToken applies sliding expiration: a successful lookup pushes
// ExpiresAt forward by the store's TTL. A lookup that observes an expired
// session deletes it and returns ErrSessionExpired.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUsername(ctx context.Context, username string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
