package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"regwatch/internal/domain"
	"regwatch/internal/middleware"
	"regwatch/internal/repository/memory"
	"regwatch/internal/service"
	"regwatch/internal/testutil"
)

// Mock user repository for handler tests
type mockUserRepository struct {
	users map[string]*domain.User
	count func(ctx context.Context) (int, error)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.UserInfo, error) {
	infos := make([]domain.UserInfo, 0, len(m.users))
	for _, u := range m.users {
		infos = append(infos, domain.UserInfo{Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return infos, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.users == nil {
		m.users = make(map[string]*domain.User)
	}
	if _, exists := m.users[user.Username]; exists {
		return domain.ErrUsernameExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, username string) error {
	if _, ok := m.users[username]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, username)
	return nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	if m.count != nil {
		return m.count(ctx)
	}
	return len(m.users), nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hashed)
}

func newAuthFixture(t *testing.T) (*AuthHandler, *service.AuthService, *memory.SessionRepository) {
	t.Helper()
	userRepo := &mockUserRepository{
		users: map[string]*domain.User{
			"alice": {
				Username:     "alice",
				PasswordHash: hashFor(t, "password123"),
				CreatedAt:    time.Now(),
			},
		},
	}
	sessionRepo := memory.NewSessionRepository(time.Hour)
	authService := service.NewAuthService(userRepo, sessionRepo)
	return NewAuthHandler(authService, time.Hour), authService, sessionRepo
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, _, sessionRepo := newAuthFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
		LoginRequest{Username: "alice", Password: "password123"})
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	testutil.AssertStatusCode(t, rec, http.StatusOK)

	resp := testutil.DecodeJSON[LoginResponse](t, rec)
	if !resp.OK || resp.Username != "alice" {
		t.Errorf("Expected ok=true username=alice, got %+v", resp)
	}

	cookie := testutil.AssertCookie(t, rec, middleware.SessionCookieName)
	if cookie == nil {
		t.FailNow()
	}
	if cookie.Value == "" {
		t.Error("Expected session cookie to carry a token")
	}
	if !cookie.HttpOnly {
		t.Error("Expected HttpOnly cookie")
	}
	if !cookie.Secure {
		t.Error("Expected Secure cookie")
	}
	if cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("Expected SameSite=None, got %v", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("Expected Path=/, got %q", cookie.Path)
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("Expected MaxAge to match the session TTL, got %d", cookie.MaxAge)
	}

	if _, err := sessionRepo.GetByToken(context.Background(), cookie.Value); err != nil {
		t.Errorf("Expected cookie token to resolve to a stored session: %v", err)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	handler, _, _ := newAuthFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
		LoginRequest{Username: "alice", Password: "wrong"})
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	testutil.AssertJSONError(t, rec, http.StatusUnauthorized, "Invalid credentials")
	testutil.AssertNoCookie(t, rec, middleware.SessionCookieName)
}

func TestAuthHandler_Login_UnknownUserSameError(t *testing.T) {
	handler, _, _ := newAuthFixture(t)

	wrongPass := httptest.NewRecorder()
	body, _ := json.Marshal(LoginRequest{Username: "alice", Password: "wrong"})
	handler.Login(wrongPass, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

	unknown := httptest.NewRecorder()
	body, _ = json.Marshal(LoginRequest{Username: "nobody", Password: "whatever"})
	handler.Login(unknown, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

	if wrongPass.Code != unknown.Code {
		t.Errorf("Status must not distinguish unknown user from wrong password: %d vs %d", wrongPass.Code, unknown.Code)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Error("Body must not distinguish unknown user from wrong password")
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler, _, _ := newAuthFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"password":"password123"}`},
		{"missing password", `{"username":"alice"}`},
		{"empty body", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	handler, _, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, authService, sessionRepo := newAuthFixture(t)
	ctx := context.Background()

	session, err := authService.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), session))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := testutil.AssertCookie(t, rec, middleware.SessionCookieName)
	if cookie == nil {
		t.FailNow()
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("Expected clearing cookie, got value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}

	if _, err := sessionRepo.GetByToken(ctx, session.Token); err == nil {
		t.Error("Expected session to be deleted after logout")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	handler, authService, _ := newAuthFixture(t)

	// Not logged in
	rec := httptest.NewRecorder()
	handler.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 without a cookie, got %d", rec.Code)
	}
	var resp MeResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.LoggedIn {
		t.Error("Expected loggedIn=false without a cookie")
	}

	// Logged in
	session, err := authService.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session.Token})
	rec = httptest.NewRecorder()
	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	resp = MeResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.LoggedIn || resp.Username != "alice" {
		t.Errorf("Expected loggedIn=true username=alice, got %+v", resp)
	}

	// Garbage token is still a 200, just not logged in
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "bogus"})
	rec = httptest.NewRecorder()
	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for invalid token, got %d", rec.Code)
	}
	resp = MeResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.LoggedIn {
		t.Error("Expected loggedIn=false for invalid token")
	}
}
