package memory

import (
	"context"
	"testing"
	"time"

	"regwatch/internal/domain"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	session := &domain.Session{Token: "tok-1", Username: "alice"}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("expected username alice, got %s", got.Username)
	}
	if got.ExpiresAt.IsZero() {
		t.Error("expected ExpiresAt to be stamped")
	}
}

func TestSessionRepository_GetByToken_Unknown(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	_, err := repo.GetByToken(context.Background(), "missing")
	if err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepository_ExpiredDeletedOnLookup(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return current }

	if err := repo.Create(ctx, &domain.Session{Token: "tok-1", Username: "alice"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Move past expiry
	current = current.Add(2 * time.Hour)

	if _, err := repo.GetByToken(ctx, "tok-1"); err != domain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	// The expired entry is gone: a second lookup reports not-found, not expired
	if _, err := repo.GetByToken(ctx, "tok-1"); err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after expiry eviction, got %v", err)
	}
}

func TestSessionRepository_SlidingExpiration(t *testing.T) {
	ttl := time.Hour
	repo := NewSessionRepository(ttl)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := t0
	repo.now = func() time.Time { return current }

	if err := repo.Create(ctx, &domain.Session{Token: "tok-1", Username: "alice"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if !got.ExpiresAt.Equal(t0.Add(ttl)) {
		t.Errorf("expected expiry %v, got %v", t0.Add(ttl), got.ExpiresAt)
	}

	// A validate at T0+TTL/2 pushes expiry to T0+TTL/2+TTL
	current = t0.Add(ttl / 2)
	got, err = repo.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	want := t0.Add(ttl / 2).Add(ttl)
	if !got.ExpiresAt.Equal(want) {
		t.Errorf("expected slid expiry %v, got %v", want, got.ExpiresAt)
	}

	// The slide keeps the session alive past the original window
	current = t0.Add(ttl).Add(time.Minute)
	if _, err := repo.GetByToken(ctx, "tok-1"); err != nil {
		t.Errorf("session should have survived past the original expiry: %v", err)
	}
}

func TestSessionRepository_Delete_Idempotent(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Session{Token: "tok-1", Username: "alice"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "tok-1"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "tok-1"); err != nil {
		t.Errorf("second Delete should be a no-op, got: %v", err)
	}

	if _, err := repo.GetByToken(ctx, "tok-1"); err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSessionRepository_DeleteByUsername(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	repo.Create(ctx, &domain.Session{Token: "tok-1", Username: "alice"})
	repo.Create(ctx, &domain.Session{Token: "tok-2", Username: "alice"})
	repo.Create(ctx, &domain.Session{Token: "tok-3", Username: "bob"})

	if err := repo.DeleteByUsername(ctx, "alice"); err != nil {
		t.Fatalf("DeleteByUsername failed: %v", err)
	}

	if _, err := repo.GetByToken(ctx, "tok-1"); err != domain.ErrSessionNotFound {
		t.Error("alice's first session should be revoked")
	}
	if _, err := repo.GetByToken(ctx, "tok-2"); err != domain.ErrSessionNotFound {
		t.Error("alice's second session should be revoked")
	}
	if _, err := repo.GetByToken(ctx, "tok-3"); err != nil {
		t.Errorf("bob's session should survive: %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return current }

	repo.Create(ctx, &domain.Session{Token: "old", Username: "alice"})

	current = current.Add(30 * time.Minute)
	repo.Create(ctx, &domain.Session{Token: "fresh", Username: "bob"})

	current = current.Add(45 * time.Minute) // "old" is 75m past creation, "fresh" 45m

	removed, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if repo.Len() != 1 {
		t.Errorf("expected 1 remaining session, got %d", repo.Len())
	}
}
