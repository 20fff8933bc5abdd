package handler

import (
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/service"
)

// AdminHandler serves the /admin routes. The router guards every route with
// RequireAdmin; post and comment deletion reuse the regular handlers.
type AdminHandler struct {
	userService *service.UserService
}

func NewAdminHandler(userService *service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

// ListUsers handles GET /admin/users?search=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, err, "list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// DeleteUser handles DELETE /admin/users/{id}
// Removes the account with all its posts, comments, ratings, likes and bookmarks.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, err, "delete user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "User deleted successfully",
	})
}
