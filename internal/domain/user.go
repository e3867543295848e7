package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameExists     = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// User represents an administrative user
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInfo is the public view of a user (never carries the password hash)
type UserInfo struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository defines the interface for user data access.
// Create and Delete must serialize with respect to each other: the backing
// store is replaced wholesale on every mutation.
type UserRepository interface {
	List(ctx context.Context) ([]UserInfo, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, username string) error
	Count(ctx context.Context) (int, error)
}
