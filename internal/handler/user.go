package handler

import (
	"errors"
	"net/http"
	"strings"

	"inkwell/internal/httputil"
	"inkwell/internal/model"
	"inkwell/internal/service"
	"inkwell/internal/transport/http/middleware"
)

type UserHandler struct {
	userService     *service.UserService
	postService     *service.PostService
	bookmarkService *service.BookmarkService
	rankingService  *service.RankingService
	uploader        service.ImageUploader
}

// NewUserHandler wires the profile endpoints. uploader may be nil, in which
// case avatar uploads answer MEDIA_DISABLED.
func NewUserHandler(
	userService *service.UserService,
	postService *service.PostService,
	bookmarkService *service.BookmarkService,
	rankingService *service.RankingService,
	uploader service.ImageUploader,
) *UserHandler {
	return &UserHandler{
		userService:     userService,
		postService:     postService,
		bookmarkService: bookmarkService,
		rankingService:  rankingService,
		uploader:        uploader,
	}
}

// GetProfile handles GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "get profile")
		return
	}

	profile := user.Summary()
	profile.Email = ""
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /me
// Accepts multipart (bio, avatar file) or a JSON body with bio only.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateProfileRequest
	if isMultipart(r) {
		maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
		r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
		if err := r.ParseMultipartForm(maxFormSize); err != nil {
			if strings.Contains(err.Error(), "request body too large") {
				httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
				return
			}
			httputil.WriteBadRequest(w, "Invalid form data")
			return
		}

		if values, ok := r.MultipartForm.Value["bio"]; ok && len(values) > 0 {
			bio := values[0]
			req.Bio = &bio
		}

		file, header, err := r.FormFile("avatar")
		switch {
		case err == nil:
			defer file.Close()
			if h.uploader == nil {
				writeServiceError(w, model.ErrMediaDisabled, "upload avatar")
				return
			}
			upload, err := h.uploader.UploadAvatar(r.Context(), file, header)
			if err != nil {
				writeServiceError(w, err, "upload avatar")
				return
			}
			req.AvatarURL = &upload.URL
			req.AvatarKey = &upload.Key
		case !errors.Is(err, http.ErrMissingFile):
			httputil.WriteBadRequest(w, "Invalid avatar upload")
			return
		}
	} else {
		var body struct {
			Bio *string `json:"bio"`
		}
		if err := decodeJSON(r, &body); err != nil {
			httputil.WriteBadRequest(w, "Invalid request body")
			return
		}
		req.Bio = body.Bio
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err, "update profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// ListPosts handles GET /users/{id}/posts
func (h *UserHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	authorID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	posts, err := h.postService.ListByAuthor(r.Context(), authorID, viewerID)
	if err != nil {
		writeServiceError(w, err, "get user posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// ListBookmarks handles GET /users/{id}/bookmarks?search=
// Only the owner and admins may read a user's bookmarks.
func (h *UserHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	viewer, ok := middleware.GetViewerFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	ownerID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	posts, err := h.bookmarkService.ListBookmarked(r.Context(), ownerID, viewer, r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, err, "get bookmarks")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// TopRated handles GET /users/{id}/top-rated?limit=
func (h *UserHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	posts, err := h.rankingService.TopRatedBy(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err, "get top rated posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}
