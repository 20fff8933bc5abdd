package handler

import (
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/model"
	"inkwell/internal/service"
	"inkwell/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List handles GET /posts/{id}/comments
// Returns the thread newest first.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	comments, err := h.commentService.List(r.Context(), postID)
	if err != nil {
		writeServiceError(w, err, "get comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// Create handles POST /posts/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), postID, userID, req)
	if err != nil {
		writeServiceError(w, err, "create comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Update handles PUT /comments/{id}
// Only the author may edit.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	commentID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	var req model.CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Update(r.Context(), commentID, userID, req)
	if err != nil {
		writeServiceError(w, err, "update comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/{id} and DELETE /admin/comments/{id}
// The author and admins may delete.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := middleware.GetViewerFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	commentID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	if err := h.commentService.Delete(r.Context(), commentID, viewer); err != nil {
		writeServiceError(w, err, "delete comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// ToggleLike handles POST /comments/{id}/like
func (h *CommentHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	commentID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	result, err := h.commentService.ToggleLike(r.Context(), commentID, userID)
	if err != nil {
		writeServiceError(w, err, "like comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
