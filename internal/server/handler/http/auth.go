// Package http provides HTTP handlers for user authentication:
// registration, credential login, and token-to-user resolution.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akovalenko/sessionauth/internal/middleware"
	"github.com/akovalenko/sessionauth/internal/models"
	"github.com/akovalenko/sessionauth/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a new user account.
	// Returns service.ErrUserExists if the username is taken.
	Register(ctx context.Context, reg models.Registration) error
	// Login verifies credentials and returns a bearer token.
	// Returns service.ErrInvalidCredentials on bad credentials.
	Login(ctx context.Context, username, password string) (string, error)
	// UserByID returns the user a token belongs to.
	// Returns service.ErrUserNotFound if the user no longer exists.
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler handles HTTP requests for registration, login, and the
// authenticated-user endpoint.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// writeMessage writes a JSON body of the form {"message": ...} with the
// given status code. Clients branch on the status code alone and read the
// message only for display.
func writeMessage(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// Login handles POST /login requests.
// It expects a JSON body with "username" and "password". On success it
// responds with {"token": "..."}; bad credentials yield 401 with a message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	t, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": t})
}

// Register handles POST /register requests.
// It expects the full registration payload. A taken username yields 409
// with the conflict message; success yields 201.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.AuthService.Register(r.Context(), req); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			writeMessage(w, http.StatusConflict, "Username already taken")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

// Me handles GET /user/me requests.
// The bearer middleware has already validated the token and stored the
// user ID in the context; Me resolves it to the canonical user record and
// responds with {"user": {...}}.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	if userID == "" {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.AuthService.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]*models.User{"user": user})
}
