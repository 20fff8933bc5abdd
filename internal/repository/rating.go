package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkwell/internal/model"
)

type ratingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert relies on the (post_id, user_id) key so a second rating by the same
// user overwrites the first instead of adding a row.
func (r *ratingRepository) Upsert(ctx context.Context, postID, userID int64, value int) error {
	query := `
		INSERT INTO post_ratings (post_id, user_id, value, rated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (post_id, user_id) DO UPDATE SET value = EXCLUDED.value, rated_at = EXCLUDED.rated_at
	`
	if _, err := r.db.ExecContext(ctx, query, postID, userID, value); err != nil {
		if missing := missingReference(err, model.ErrPostNotFound); missing != nil {
			return missing
		}
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (r *ratingRepository) ListForPost(ctx context.Context, postID int64) ([]model.Rating, error) {
	ratings := []model.Rating{}
	query := `SELECT post_id, user_id, value, rated_at FROM post_ratings WHERE post_id = $1 ORDER BY rated_at NULLS FIRST, user_id`
	if err := r.db.SelectContext(ctx, &ratings, query, postID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// ListForPosts groups the ratings of several posts by post id.
func (r *ratingRepository) ListForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Rating, error) {
	result := make(map[int64][]model.Rating)
	if len(postIDs) == 0 {
		return result, nil
	}

	var ratings []model.Rating
	query := `
		SELECT post_id, user_id, value, rated_at
		FROM post_ratings
		WHERE post_id = ANY($1)
		ORDER BY post_id, rated_at NULLS FIRST, user_id
	`
	if err := r.db.SelectContext(ctx, &ratings, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("list ratings for posts: %w", err)
	}
	for _, rt := range ratings {
		result[rt.PostID] = append(result[rt.PostID], rt)
	}
	return result, nil
}
