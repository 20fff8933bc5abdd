package service

import (
	"context"
	"fmt"
	"log"

	"inkwell/internal/engagement"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

type BookmarkService struct {
	bookmarkRepo repository.BookmarkRepository
	postRepo     repository.PostRepository
	hydrator     *hydrator
}

func NewBookmarkService(
	bookmarkRepo repository.BookmarkRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	ratingRepo repository.RatingRepository,
) *BookmarkService {
	return &BookmarkService{
		bookmarkRepo: bookmarkRepo,
		postRepo:     postRepo,
		hydrator:     newHydrator(userRepo, postRepo, ratingRepo, bookmarkRepo),
	}
}

// Toggle adds postID to userID's bookmarks, or removes it if already present.
func (s *BookmarkService) Toggle(ctx context.Context, userID, postID int64) (*model.BookmarkResult, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	bookmarked, ids, err := s.bookmarkRepo.Toggle(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}

	log.Printf("[BookmarkService] User %d bookmark on post %d: %t", userID, postID, bookmarked)
	return &model.BookmarkResult{IsBookmarked: bookmarked, Bookmarks: ids}, nil
}

// IsBookmarked reports membership. Anonymous viewers never have bookmarks.
func (s *BookmarkService) IsBookmarked(ctx context.Context, viewerID *int64, postID int64) (bool, error) {
	if viewerID == nil {
		return false, nil
	}
	ids, err := s.bookmarkRepo.ListPostIDs(ctx, *viewerID)
	if err != nil {
		return false, err
	}
	return engagement.NewIDSet(ids).Has(postID), nil
}

// ListBookmarked returns ownerID's bookmarked posts, most recently bookmarked
// first, optionally narrowed by a title/content search. Only the owner and
// admins may read the list.
func (s *BookmarkService) ListBookmarked(ctx context.Context, ownerID int64, actor model.Viewer, search string) ([]model.Post, error) {
	if actor.UserID != ownerID && !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}

	ids, err := s.bookmarkRepo.ListPostIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.hydrator.annotate(ctx, posts, &ownerID); err != nil {
		return nil, err
	}

	posts = engagement.FilterBySearch(engagement.MostRecentFirst(posts), search)
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}
