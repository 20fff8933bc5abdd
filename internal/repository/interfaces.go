package repository

import (
	"context"
	"time"

	"inkwell/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByIdentifier matches the lowercased identifier against username or email.
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error)
	List(ctx context.Context, search string) ([]model.User, error)
	// Delete removes the user and everything they own in one transaction and
	// returns the object keys of the media that is no longer referenced.
	Delete(ctx context.Context, id int64) ([]string, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	// List returns one page of posts matching filter, newest first.
	// A non-positive limit returns every match.
	List(ctx context.Context, filter model.PostFilter, limit, offset int) ([]model.Post, error)
	Count(ctx context.Context, filter model.PostFilter) (int, error)
	// ListByIDs returns the posts that still exist, in the order of ids.
	ListByIDs(ctx context.Context, ids []int64) ([]model.Post, error)
	ListSince(ctx context.Context, since time.Time) ([]model.Post, error)
	ListRatedBy(ctx context.Context, userID int64) ([]model.Post, error)
	// Related returns posts other than postID sharing at least one tag, id ascending.
	Related(ctx context.Context, postID int64, tags []string, limit int) ([]model.Post, error)
	Tags(ctx context.Context) ([]string, error)
	Update(ctx context.Context, post *model.Post) error
	// Delete removes the post with its comments, ratings, likes and bookmarks
	// in one transaction and returns the image key it held, if any.
	Delete(ctx context.Context, id int64) (*string, error)
	ToggleLike(ctx context.Context, postID, userID int64) (liked bool, count int, err error)
	LikesForPosts(ctx context.Context, postIDs []int64) (map[int64][]int64, error)
	CommentCounts(ctx context.Context, postIDs []int64) (map[int64]int, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type RatingRepository interface {
	// Upsert stores userID's rating of postID, replacing any previous value.
	Upsert(ctx context.Context, postID, userID int64, value int) error
	ListForPost(ctx context.Context, postID int64) ([]model.Rating, error)
	ListForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Rating, error)
}

type BookmarkRepository interface {
	// Toggle flips membership of postID in userID's bookmarks and returns the
	// new state plus the full set in insertion order.
	Toggle(ctx context.Context, userID, postID int64) (bool, []int64, error)
	// ListPostIDs returns userID's bookmarks in insertion order.
	ListPostIDs(ctx context.Context, userID int64) ([]int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	Update(ctx context.Context, id int64, text string) (*model.Comment, error)
	Delete(ctx context.Context, id int64) error
	// ListByPost returns the post's comments newest first with author summaries.
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
	ToggleLike(ctx context.Context, commentID, userID int64) (liked bool, count int, err error)
	LikesForComments(ctx context.Context, commentIDs []int64) (map[int64][]int64, error)
}
