package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"regwatch/internal/domain"
	"regwatch/internal/observability"
	"regwatch/internal/session"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	bcryptCost     = 12
)

type AuthService struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
}

func NewAuthService(userRepo domain.UserRepository, sessionRepo domain.SessionRepository) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// Login verifies credentials and creates a session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(password),
	); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := session.GenerateToken()
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{
		Token:    token,
		Username: user.Username,
	}

	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.Delete(ctx, token)
}

func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	return s.sessionRepo.GetByToken(ctx, token)
}

// ListUsers returns the public view of all users
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserInfo, error) {
	return s.userRepo.List(ctx)
}

// AddUser validates and stores a new user with a bcrypt-hashed password
func (s *AuthService) AddUser(ctx context.Context, username, password string) error {
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return domain.ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	return s.userRepo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	})
}

// RemoveUser deletes a user and revokes every session they own, so a
// deleted admin cannot keep acting on an old cookie
func (s *AuthService) RemoveUser(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		return err
	}
	return s.sessionRepo.DeleteByUsername(ctx, username)
}

// EnsureBootstrapUser creates the initial admin when the store is empty.
// Reports whether a user was created.
func (s *AuthService) EnsureBootstrapUser(ctx context.Context, username, password string) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := s.AddUser(ctx, username, password); err != nil {
		return false, err
	}

	observability.Warn("bootstrapped default admin user, rotate its password",
		"username", username)
	return true, nil
}
