package service

import (
	"context"
	"time"

	"inkwell/internal/engagement"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// RankingService answers the read-only ranking queries: trending, related
// and a user's top-rated posts.
type RankingService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	hydrator *hydrator
	now      func() time.Time
}

func NewRankingService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	ratingRepo repository.RatingRepository,
	bookmarkRepo repository.BookmarkRepository,
) *RankingService {
	return &RankingService{
		postRepo: postRepo,
		userRepo: userRepo,
		hydrator: newHydrator(userRepo, postRepo, ratingRepo, bookmarkRepo),
		now:      time.Now,
	}
}

// Trending returns the best-rated posts created in the last days days.
// Non-positive arguments fall back to the defaults; limit is capped.
func (s *RankingService) Trending(ctx context.Context, days, limit int) ([]model.Post, error) {
	if days <= 0 {
		days = model.DefaultTrendingDays
	}
	if limit <= 0 {
		limit = model.DefaultTrendingLimit
	}
	limit = min(limit, model.MaxTrendingLimit)

	posts, err := s.postRepo.ListSince(ctx, engagement.Since(s.now(), days))
	if err != nil {
		return nil, err
	}
	if err := s.hydrator.annotate(ctx, posts, nil); err != nil {
		return nil, err
	}

	engagement.SortTrending(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// Related returns up to limit other posts sharing at least one tag with postID.
func (s *RankingService) Related(ctx context.Context, postID int64, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = model.DefaultRelatedLimit
	}

	target, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(target.Tags) == 0 {
		return []model.Post{}, nil
	}

	posts, err := s.postRepo.Related(ctx, postID, target.Tags, limit)
	if err != nil {
		return nil, err
	}
	if err := s.hydrator.annotate(ctx, posts, nil); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// TopRatedBy returns the posts userID rated highest, most recent rating first
// among equal scores.
func (s *RankingService) TopRatedBy(ctx context.Context, userID int64, limit int) ([]model.RatedPost, error) {
	if limit <= 0 {
		limit = model.DefaultTopRatedLimit
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListRatedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrator.annotate(ctx, posts, nil); err != nil {
		return nil, err
	}
	return engagement.TopRatedBy(posts, userID, limit), nil
}
