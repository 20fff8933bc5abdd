package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/httputil"
	"inkwell/internal/model"
)

// writeServiceError maps a service error onto the JSON error envelope.
// Anything unrecognized is logged and reported as a 500 for action.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httputil.WriteValidationError(w, validationErr.Field, validationErr.Error())
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteNotFound(w, "Comment not found")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrNotPostOwner):
		httputil.WriteForbidden(w, "You can only modify your own posts")
	case errors.Is(err, model.ErrNotCommentOwner):
		httputil.WriteForbidden(w, "You can only modify your own comments")
	case errors.Is(err, model.ErrForbidden):
		httputil.WriteForbidden(w, "You are not allowed to do this")
	case errors.Is(err, model.ErrUsernameExists):
		httputil.WriteConflict(w, "Username or email already in use")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid username/email or password")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image is too large")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	case errors.Is(err, model.ErrMediaDisabled):
		httputil.WriteUnavailable(w, model.CodeMediaDisabled, "Image uploads are not configured")
	default:
		log.Printf("[ERROR] %s: %v", action, err)
		httputil.WriteInternalError(w, "Failed to "+action)
	}
}

// pathID parses the int64 URL parameter name.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// splitTags accepts repeated form values and comma separated lists.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
