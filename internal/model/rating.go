package model

import "time"

// Rating is one user's score on one post. At most one exists per (post, user).
type Rating struct {
	PostID  int64      `db:"post_id" json:"-"`
	UserID  int64      `db:"user_id" json:"user_id"`
	Value   int        `db:"value" json:"value"`
	RatedAt *time.Time `db:"rated_at" json:"rated_at,omitempty"`
}

// RateRequest is the request body for POST /posts/{id}/rate.
type RateRequest struct {
	Value int `json:"value"`
}

// RatingResult is returned after a rating upsert.
type RatingResult struct {
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int     `json:"rating_count"`
}

// Rating bounds
const (
	MinRatingValue = 1
	MaxRatingValue = 5
)
