package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"

	"inkwell/internal/content"
	"inkwell/internal/engagement"
	"inkwell/internal/model"
	"inkwell/internal/queue"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	publisher   queue.Publisher
	hydrator    *hydrator
}

// NewPostService wires the post commands and feed queries. publisher may be
// nil, in which case released images are left in storage.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	ratingRepo repository.RatingRepository,
	bookmarkRepo repository.BookmarkRepository,
	commentRepo repository.CommentRepository,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
		hydrator:    newHydrator(userRepo, postRepo, ratingRepo, bookmarkRepo),
	}
}

// Create stores a new post authored by authorID. An uploaded image that ends
// up unreferenced because the post was rejected is queued for deletion.
func (s *PostService) Create(ctx context.Context, authorID int64, req model.CreatePostRequest) (*model.Post, error) {
	post, err := s.create(ctx, authorID, req)
	if err != nil {
		s.discardUpload(ctx, authorID, req.ImageKey)
		return nil, err
	}
	return post, nil
}

func (s *PostService) create(ctx context.Context, authorID int64, req model.CreatePostRequest) (*model.Post, error) {
	req.Title = content.StripHTML(req.Title)
	req.Tags = cleanTags(req.Tags)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     pq.StringArray(req.Tags),
		ImageURL: req.ImageURL,
		ImageKey: req.ImageKey,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d created post %d", authorID, post.ID)
	return s.reload(ctx, post, &authorID), nil
}

// Get returns the full single-post view. viewer may be nil.
func (s *PostService) Get(ctx context.Context, postID int64, viewer *model.Viewer) (*model.PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	viewerID := viewerIDOf(viewer)
	posts := []model.Post{*post}
	if err := s.hydrator.annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	comments, err := s.loadComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &model.PostDetail{
		Post:        posts[0],
		UserRating:  engagement.RatingForViewer(posts[0].Ratings, viewerID),
		ContentHTML: content.RenderMarkdown(posts[0].Content),
		Comments:    comments,
	}, nil
}

// Update applies a partial edit. Only the author may edit. A rejected edit
// releases the image uploaded with it.
func (s *PostService) Update(ctx context.Context, postID int64, actor model.Viewer, req model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.update(ctx, postID, actor, req)
	if err != nil {
		s.discardUpload(ctx, actor.UserID, req.ImageKey)
		return nil, err
	}
	return post, nil
}

func (s *PostService) update(ctx context.Context, postID int64, actor model.Viewer, req model.UpdatePostRequest) (*model.Post, error) {
	if req.Title != nil {
		title := content.StripHTML(*req.Title)
		req.Title = &title
	}
	if req.Tags != nil {
		req.Tags = cleanTags(req.Tags)
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID {
		return nil, model.ErrNotPostOwner
	}

	var released *string
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Tags != nil {
		post.Tags = pq.StringArray(req.Tags)
	}
	if req.ImageURL != nil && !keepsCurrentImage(post, req) {
		released = post.ImageKey
		post.ImageURL = req.ImageURL
		post.ImageKey = req.ImageKey
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	if released != nil && (post.ImageKey == nil || *post.ImageKey != *released) {
		queue.PublishReleased(ctx, s.publisher, queue.NewMediaReleasedEvent(actor.UserID, *released))
	}

	log.Printf("[PostService] User %d updated post %d", actor.UserID, postID)
	return s.reload(ctx, post, &actor.UserID), nil
}

// Delete removes a post with everything attached to it. The author and
// admins may delete.
func (s *PostService) Delete(ctx context.Context, postID int64, actor model.Viewer) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.UserID && !actor.IsAdmin() {
		return model.ErrNotPostOwner
	}

	imageKey, err := s.postRepo.Delete(ctx, postID)
	if err != nil {
		return err
	}

	if imageKey != nil {
		queue.PublishReleased(ctx, s.publisher, queue.NewPostDeletedEvent(postID, *imageKey))
	}

	log.Printf("[PostService] User %d deleted post %d", actor.UserID, postID)
	return nil
}

// ToggleLike likes the post if userID has not, otherwise removes the like.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID int64) (*model.LikeResult, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	liked, count, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &model.LikeResult{Likes: count, Liked: liked}, nil
}

// List is the paginated feed: search over title/content, tag filter,
// newest first, annotated for viewerID.
func (s *PostService) List(ctx context.Context, filter model.PostFilter, viewerID *int64) (*model.PostListResponse, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Tag = engagement.NormalizeTag(filter.Tag)
	if filter.Limit > model.MaxListLimit {
		filter.Limit = model.MaxListLimit
	}
	page := engagement.NewPage(filter.Page, filter.Limit)

	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if err := s.hydrator.annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	return &model.PostListResponse{
		Total: total,
		Page:  page.Page,
		Pages: page.Pages(total),
		Limit: page.Limit,
		Posts: posts,
	}, nil
}

// ListMine is List restricted to userID's own posts.
func (s *PostService) ListMine(ctx context.Context, userID int64, page, limit int) (*model.PostListResponse, error) {
	return s.List(ctx, model.PostFilter{AuthorID: &userID, Page: page, Limit: limit}, &userID)
}

// ListByAuthor returns every post by authorID, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int64, viewerID *int64) ([]model.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.List(ctx, model.PostFilter{AuthorID: &authorID}, 0, 0)
	if err != nil {
		return nil, err
	}
	if err := s.hydrator.annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// Tags returns every distinct tag in use.
func (s *PostService) Tags(ctx context.Context) ([]string, error) {
	return s.postRepo.Tags(ctx)
}

func (s *PostService) loadComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := annotateComments(ctx, s.commentRepo, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// reload annotates a single freshly written post, logging instead of failing
// since the write already succeeded.
func (s *PostService) reload(ctx context.Context, post *model.Post, viewerID *int64) *model.Post {
	posts := []model.Post{*post}
	if err := s.hydrator.annotate(ctx, posts, viewerID); err != nil {
		log.Printf("[PostService] Failed to annotate post %d: %v", post.ID, err)
		return post
	}
	return &posts[0]
}

// keepsCurrentImage reports an edit that echoes the stored image URL back
// without a new upload.
func keepsCurrentImage(post *model.Post, req model.UpdatePostRequest) bool {
	return req.ImageKey == nil && post.ImageURL != nil && *req.ImageURL == *post.ImageURL
}

// discardUpload queues a freshly uploaded image that no post references.
func (s *PostService) discardUpload(ctx context.Context, userID int64, key *string) {
	if key == nil {
		return
	}
	log.Printf("[PostService] Releasing unused upload %s of user %d", *key, userID)
	queue.PublishReleased(ctx, s.publisher, queue.NewMediaReleasedEvent(userID, *key))
}

// cleanTags strips markup from each tag, then lowercases and deduplicates.
func cleanTags(tags []string) []string {
	stripped := make([]string, len(tags))
	for i, t := range tags {
		stripped[i] = content.StripHTML(t)
	}
	return engagement.NormalizeTags(stripped)
}
