package memory

import (
	"context"
	"sync"
	"time"

	"regwatch/internal/domain"
)

// SessionRepository implements domain.SessionRepository with a
// process-lifetime in-memory table. Sessions are deliberately not
// persisted: a restart invalidates all of them.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewSessionRepository creates an in-memory session repository. ttl is the
// idle window applied on creation and slid forward on every successful
// lookup.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the configured idle window
func (r *SessionRepository) TTL() time.Duration {
	return r.ttl
}

// Create stores a new session, stamping CreatedAt and ExpiresAt
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = now.Add(r.ttl)
	}

	s := *session
	r.sessions[session.Token] = &s
	return nil
}

// GetByToken looks up a session and slides its expiry forward. An expired
// session is removed as a side effect of the lookup that observes it.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	now := r.now()
	if now.After(session.ExpiresAt) {
		delete(r.sessions, token)
		return nil, domain.ErrSessionExpired
	}

	session.ExpiresAt = now.Add(r.ttl)

	s := *session
	return &s, nil
}

// Delete removes a session; deleting an unknown token is a no-op
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

// DeleteByUsername revokes every session owned by username
func (r *SessionRepository) DeleteByUsername(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, session := range r.sessions {
		if session.Username == username {
			delete(r.sessions, token)
		}
	}
	return nil
}

// DeleteExpired removes every session past its expiry and reports how many
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed int64
	for token, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Len reports the current number of live sessions
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
