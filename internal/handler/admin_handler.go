package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regwatch/internal/domain"
	"regwatch/internal/observability"
	"regwatch/internal/service"
)

// AdminHandler handles user administration endpoints
type AdminHandler struct {
	authService *service.AuthService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// AddUserRequest represents a user creation request
type AddUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ListUsers returns all users without their password hashes
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Error("failed to list users",
			"error", err.Error())
		http.Error(w, `{"error":"Failed to list users"}`, http.StatusInternalServerError)
		return
	}

	if users == nil {
		users = []domain.UserInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// AddUser creates a new user
func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	err := h.authService.AddUser(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, `{"error":"Username must be at least 3 characters and password at least 6"}`, http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrUsernameExists):
		http.Error(w, `{"error":"Username already exists"}`, http.StatusConflict)
		return
	default:
		observability.FromContext(r.Context()).Error("failed to add user",
			"error", err.Error())
		http.Error(w, `{"error":"Failed to add user"}`, http.StatusInternalServerError)
		return
	}

	observability.FromContext(r.Context()).Info("user added",
		"new_user", req.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// DeleteUser removes a user and revokes their sessions
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		http.Error(w, `{"error":"Username required"}`, http.StatusBadRequest)
		return
	}

	err := h.authService.RemoveUser(r.Context(), username)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		http.Error(w, `{"error":"User not found"}`, http.StatusNotFound)
		return
	default:
		observability.FromContext(r.Context()).Error("failed to delete user",
			"error", err.Error())
		http.Error(w, `{"error":"Failed to delete user"}`, http.StatusInternalServerError)
		return
	}

	observability.FromContext(r.Context()).Info("user deleted",
		"deleted_user", username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
