package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"post_id"`
	AuthorID  int64        `db:"author_id" json:"author_id"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
	Likes     []int64      `json:"likes"`
	LikeCount int          `json:"like_count"`
}

// CommentRequest is the request body for creating or updating a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("not the owner of this comment")
)
