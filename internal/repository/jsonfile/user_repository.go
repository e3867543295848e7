package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"regwatch/internal/domain"
)

// UserRepository implements domain.UserRepository on top of a single JSON
// file holding an array of user records. All mutations take the write lock
// for their whole read-modify-write cycle, so concurrent Create/Delete
// calls queue up in lock-acquisition order and none can observe (or
// clobber) a half-applied state.
type UserRepository struct {
	path string
	mu   sync.Mutex
}

// NewUserRepository creates a user repository backed by the file at path.
// The file is created lazily on the first mutation.
func NewUserRepository(path string) *UserRepository {
	return &UserRepository{path: path}
}

// load reads the entire record set. A missing file is an empty store.
func (r *UserRepository) load() ([]domain.User, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []domain.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user store: %w", err)
	}

	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user store: %w", err)
	}
	return users, nil
}

// save atomically replaces the backing file: write to a temp file in the
// same directory, then rename over the original so a crash mid-write
// never leaves a truncated store behind.
func (r *UserRepository) save(users []domain.User) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "users-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace user store: %w", err)
	}
	return nil
}

// List returns the public view of all users, never the password hashes
func (r *UserRepository) List(ctx context.Context) ([]domain.UserInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	infos := make([]domain.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, domain.UserInfo{
			Username:  u.Username,
			CreatedAt: u.CreatedAt,
		})
	}
	return infos, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Username == username {
			u := users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create appends a new user record and persists the full set
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].Username == user.Username {
			return domain.ErrUsernameExists
		}
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	users = append(users, *user)
	return r.save(users)
}

// Delete removes a user record by username
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].Username == username {
			users = append(users[:i], users[i+1:]...)
			return r.save(users)
		}
	}
	return domain.ErrUserNotFound
}

// Count returns the number of stored users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
