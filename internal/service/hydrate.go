package service

import (
	"context"
	"fmt"

	"inkwell/internal/engagement"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// hydrator fills the joined and derived fields of posts with one batched
// query per relation, regardless of how many posts are passed.
type hydrator struct {
	users     repository.UserRepository
	posts     repository.PostRepository
	ratings   repository.RatingRepository
	bookmarks repository.BookmarkRepository
}

func newHydrator(
	users repository.UserRepository,
	posts repository.PostRepository,
	ratings repository.RatingRepository,
	bookmarks repository.BookmarkRepository,
) *hydrator {
	return &hydrator{users: users, posts: posts, ratings: ratings, bookmarks: bookmarks}
}

// annotate sets author, ratings, likes, comment count and the viewer's
// like/bookmark state on every post in place. A nil viewerID is anonymous.
func (h *hydrator) annotate(ctx context.Context, posts []model.Post, viewerID *int64) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	authorIDs := make([]int64, 0, len(posts))
	seenAuthor := make(map[int64]bool, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		if !seenAuthor[p.AuthorID] {
			seenAuthor[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := h.users.GetSummaries(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	ratings, err := h.ratings.ListForPosts(ctx, postIDs)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	likes, err := h.posts.LikesForPosts(ctx, postIDs)
	if err != nil {
		return fmt.Errorf("load likes: %w", err)
	}
	commentCounts, err := h.posts.CommentCounts(ctx, postIDs)
	if err != nil {
		return fmt.Errorf("load comment counts: %w", err)
	}

	var bookmarked engagement.IDSet
	if viewerID != nil {
		ids, err := h.bookmarks.ListPostIDs(ctx, *viewerID)
		if err != nil {
			return fmt.Errorf("load bookmarks: %w", err)
		}
		bookmarked = engagement.NewIDSet(ids)
	}

	for i := range posts {
		p := &posts[i]
		if author, ok := authors[p.AuthorID]; ok {
			author.Email = ""
			p.Author = &author
		}

		p.Ratings = ratings[p.ID]
		if p.Ratings == nil {
			p.Ratings = []model.Rating{}
		}
		p.AvgRating, p.RatingCount = engagement.AverageAndCount(p.Ratings)

		p.Likes = likes[p.ID]
		if p.Likes == nil {
			p.Likes = []int64{}
		}
		p.LikeCount = len(p.Likes)
		p.CommentCount = commentCounts[p.ID]

		p.IsBookmarked = bookmarked.Has(p.ID)
		p.IsLiked = viewerID != nil && containsID(p.Likes, *viewerID)
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func viewerIDOf(viewer *model.Viewer) *int64 {
	if viewer == nil {
		return nil
	}
	id := viewer.UserID
	return &id
}
