package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post represents an authored post with its stored fields.
type Post struct {
	ID        int64          `db:"id" json:"id"`
	AuthorID  int64          `db:"author_id" json:"author_id"`
	Title     string         `db:"title" json:"title"`
	Content   string         `db:"content" json:"content"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	ImageURL  *string        `db:"image_url" json:"image_url"`
	ImageKey  *string        `db:"image_key" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`

	// Joined fields (not in posts table)
	Author  *UserSummary `json:"author,omitempty"`
	Ratings []Rating     `json:"ratings"`
	Likes   []int64      `json:"likes"`

	// Derived per request, never stored
	AvgRating    float64 `json:"avg_rating"`
	RatingCount  int     `json:"rating_count"`
	LikeCount    int     `json:"like_count"`
	CommentCount int     `json:"comment_count"`
	IsLiked      bool    `json:"is_liked"`
	IsBookmarked bool    `json:"is_bookmarked"`
}

// PostDetail is the single-post view: everything in Post plus the viewer's own
// rating, the live comment thread and the rendered body.
type PostDetail struct {
	Post
	UserRating  *int      `json:"user_rating"`
	ContentHTML string    `json:"content_html"`
	Comments    []Comment `json:"comments"`
}

// RatedPost is a post seen through one user's rating of it.
type RatedPost struct {
	Post
	UserRating int       `json:"user_rating"`
	RatedAt    time.Time `json:"rated_at"`
}

// PostListResponse is the offset-paginated post list. Limit is the window
// actually applied after capping at MaxListLimit, 0 when unpaginated.
type PostListResponse struct {
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
	Limit int    `json:"limit"`
	Posts []Post `json:"posts"`
}

// PostFilter narrows listPosts / listMine queries.
// Limit 0 means every matching post with no pagination.
type PostFilter struct {
	Search   string
	Tag      string
	AuthorID *int64
	Page     int
	Limit    int
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string   `json:"title" validate:"required,min=3,max=100"`
	Content  string   `json:"content" validate:"required,min=10"`
	Tags     []string `json:"tags" validate:"max=20,dive,max=50"`
	ImageURL *string  `json:"image" validate:"omitempty,url"`
	ImageKey *string  `json:"-"`
}

// UpdatePostRequest is a partial update; nil fields are left untouched.
type UpdatePostRequest struct {
	Title    *string  `json:"title" validate:"omitempty,min=3,max=100"`
	Content  *string  `json:"content" validate:"omitempty,min=10"`
	Tags     []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	ImageURL *string  `json:"image" validate:"omitempty,url"`
	ImageKey *string  `json:"-"`
}

// LikeResult is returned by like toggles on posts and comments.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// Post constraints
const (
	DefaultTrendingDays  = 7
	DefaultTrendingLimit = 10
	MaxTrendingLimit     = 50
	DefaultRelatedLimit  = 5
	DefaultTopRatedLimit = 5
	MaxListLimit         = 100
	MaxPostImageSize     = 10 * 1024 * 1024 // 10MB
)

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("not the owner of this post")
)
