package handler

import (
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/model"
	"inkwell/internal/service"
	"inkwell/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// Register handles POST /auth/register
// Creates the account and logs it in right away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "register")
		return
	}

	resp, err := h.authService.IssueLogin(user)
	if err != nil {
		writeServiceError(w, err, "issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
// The identifier may be a username or an email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "login")
		return
	}

	resp, err := h.authService.IssueLogin(user)
	if err != nil {
		writeServiceError(w, err, "issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
