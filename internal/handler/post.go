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

type PostHandler struct {
	postService     *service.PostService
	ratingService   *service.RatingService
	bookmarkService *service.BookmarkService
	rankingService  *service.RankingService
	uploader        service.ImageUploader
}

// NewPostHandler wires the post endpoints. uploader may be nil, in which case
// image uploads answer MEDIA_DISABLED.
func NewPostHandler(
	postService *service.PostService,
	ratingService *service.RatingService,
	bookmarkService *service.BookmarkService,
	rankingService *service.RankingService,
	uploader service.ImageUploader,
) *PostHandler {
	return &PostHandler{
		postService:     postService,
		ratingService:   ratingService,
		bookmarkService: bookmarkService,
		rankingService:  rankingService,
		uploader:        uploader,
	}
}

// List handles GET /posts?search=&tag=&page=&limit=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, okPage := queryInt(r, "page")
	limit, okLimit := queryInt(r, "limit")
	if !okPage || !okLimit {
		httputil.WriteBadRequest(w, "Invalid pagination parameters")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	q := r.URL.Query()
	resp, err := h.postService.List(r.Context(), model.PostFilter{
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
		Page:   page,
		Limit:  limit,
	}, viewerID)
	if err != nil {
		writeServiceError(w, err, "list posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ListMine handles GET /posts/mine?page=&limit=
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	page, okPage := queryInt(r, "page")
	limit, okLimit := queryInt(r, "limit")
	if !okPage || !okLimit {
		httputil.WriteBadRequest(w, "Invalid pagination parameters")
		return
	}

	resp, err := h.postService.ListMine(r.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(w, err, "list own posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Trending handles GET /posts/trending?days=&limit=
func (h *PostHandler) Trending(w http.ResponseWriter, r *http.Request) {
	days, okDays := queryInt(r, "days")
	limit, okLimit := queryInt(r, "limit")
	if !okDays || !okLimit {
		httputil.WriteBadRequest(w, "Invalid days or limit parameter")
		return
	}

	posts, err := h.rankingService.Trending(r.Context(), days, limit)
	if err != nil {
		writeServiceError(w, err, "get trending posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Tags handles GET /posts/tags
func (h *PostHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.postService.Tags(r.Context())
	if err != nil {
		writeServiceError(w, err, "list tags")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

// GetByID handles GET /posts/{id}
// Anonymous viewers get the same post without their own rating or bookmark.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var viewer *model.Viewer
	if v, ok := middleware.GetViewerFromContext(r.Context()); ok {
		viewer = &v
	}

	post, err := h.postService.Get(r.Context(), postID, viewer)
	if err != nil {
		writeServiceError(w, err, "get post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Related handles GET /posts/{id}/related?limit=
func (h *PostHandler) Related(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	posts, err := h.rankingService.Related(r.Context(), postID, limit)
	if err != nil {
		writeServiceError(w, err, "get related posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Create handles POST /posts
// Accepts JSON, or multipart with an optional image file.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if isMultipart(r) {
		form, ok := h.parsePostForm(w, r)
		if !ok {
			return
		}
		req.Title = form.title
		req.Content = form.content
		req.Tags = form.tags
		req.ImageURL, req.ImageKey = form.imageURL, form.imageKey
	} else if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err, "create post")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Update handles PUT /posts/{id}
// Only the author may edit. Omitted fields are left untouched.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	viewer, ok := middleware.GetViewerFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.UpdatePostRequest
	if isMultipart(r) {
		form, ok := h.parsePostForm(w, r)
		if !ok {
			return
		}
		if form.hasTitle {
			req.Title = &form.title
		}
		if form.hasContent {
			req.Content = &form.content
		}
		if form.hasTags {
			req.Tags = form.tags
			if req.Tags == nil {
				req.Tags = []string{}
			}
		}
		req.ImageURL, req.ImageKey = form.imageURL, form.imageKey
	} else if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), postID, viewer, req)
	if err != nil {
		writeServiceError(w, err, "update post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id} and DELETE /admin/posts/{id}
// The author and admins may delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := middleware.GetViewerFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID, ok := pathID(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Delete(r.Context(), postID, viewer); err != nil {
		writeServiceError(w, err, "delete post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}

// ToggleLike handles POST /posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.postService.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		writeServiceError(w, err, "like post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Rate handles POST /posts/{id}/rate
func (h *PostHandler) Rate(w http.ResponseWriter, r *http.Request) {
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

	var req model.RateRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Rating value must be an integer")
		return
	}

	result, err := h.ratingService.Rate(r.Context(), postID, userID, req.Value)
	if err != nil {
		writeServiceError(w, err, "rate post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// ToggleBookmark handles POST /posts/{id}/bookmark
func (h *PostHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.bookmarkService.Toggle(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, err, "bookmark post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type postForm struct {
	title, content                string
	tags                          []string
	hasTitle, hasContent, hasTags bool
	imageURL, imageKey            *string
}

// parsePostForm reads a multipart post body and uploads its image, if any.
// It writes the error response itself and reports false on failure.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (postForm, bool) {
	var form postForm

	maxFormSize := int64(model.MaxPostImageSize) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
			return form, false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return form, false
	}

	values := r.MultipartForm.Value
	if v, ok := values["title"]; ok && len(v) > 0 {
		form.title, form.hasTitle = v[0], true
	}
	if v, ok := values["content"]; ok && len(v) > 0 {
		form.content, form.hasContent = v[0], true
	}
	if v, ok := values["tags"]; ok {
		form.tags, form.hasTags = splitTags(v), true
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if h.uploader == nil {
			writeServiceError(w, model.ErrMediaDisabled, "upload image")
			return form, false
		}
		upload, err := h.uploader.UploadPostImage(r.Context(), file, header)
		if err != nil {
			writeServiceError(w, err, "upload image")
			return form, false
		}
		form.imageURL, form.imageKey = &upload.URL, &upload.Key
	case !errors.Is(err, http.ErrMissingFile):
		httputil.WriteBadRequest(w, "Invalid image upload")
		return form, false
	}
	return form, true
}
