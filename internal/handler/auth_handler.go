package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"regwatch/internal/domain"
	"regwatch/internal/middleware"
	"regwatch/internal/observability"
	"regwatch/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	sessionTTL  time.Duration
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *service.AuthService, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessionTTL:  sessionTTL,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents login response
type LoginResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username"`
}

// MeResponse represents the current login state
type MeResponse struct {
	LoggedIn bool   `json:"loggedIn"`
	Username string `json:"username,omitempty"`
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"Missing username or password"}`, http.StatusBadRequest)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		observability.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrInvalidInput) {
			http.Error(w, `{"error":"Missing username or password"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"Invalid credentials"}`, http.StatusUnauthorized)
		return
	}
	observability.LoginAttemptsTotal.WithLabelValues("success").Inc()

	h.setSessionCookie(w, session.Token, int(h.sessionTTL.Seconds()))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		OK:       true,
		Username: session.Username,
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not logged in"}`, http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		http.Error(w, `{"error":"Failed to logout"}`, http.StatusInternalServerError)
		return
	}

	// Clear cookie
	h.setSessionCookie(w, "", -1)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// Me reports the caller's login state without requiring a session. A
// present, valid cookie slides the session like any authenticated access.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	resp := MeResponse{LoggedIn: false}

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if session, err := h.authService.ValidateSession(r.Context(), cookie.Value); err == nil {
			resp.LoggedIn = true
			resp.Username = session.Username
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// setSessionCookie issues or clears the session cookie. SameSite=None
// because the frontend is served from a different origin; that forces
// Secure on.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
