package service

import (
	"context"
	"fmt"
	"log"

	"inkwell/internal/engagement"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

type RatingService struct {
	ratingRepo repository.RatingRepository
	postRepo   repository.PostRepository
}

func NewRatingService(ratingRepo repository.RatingRepository, postRepo repository.PostRepository) *RatingService {
	return &RatingService{ratingRepo: ratingRepo, postRepo: postRepo}
}

// Rate records userID's score for postID, replacing any earlier score, and
// returns the recomputed aggregate read back after the write.
func (s *RatingService) Rate(ctx context.Context, postID, userID int64, value int) (*model.RatingResult, error) {
	if err := engagement.ValidateRating(value); err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	if err := s.ratingRepo.Upsert(ctx, postID, userID, value); err != nil {
		return nil, err
	}

	ratings, err := s.ratingRepo.ListForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	avg, count := engagement.AverageAndCount(ratings)

	log.Printf("[RatingService] User %d rated post %d: %d", userID, postID, value)
	return &model.RatingResult{AvgRating: avg, RatingCount: count}, nil
}
