package service

import (
	"context"
	"fmt"
	"log"

	"inkwell/internal/content"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// Create adds a comment to a post.
func (s *CommentService) Create(ctx context.Context, postID, userID int64, req model.CommentRequest) (*model.Comment, error) {
	req.Text = content.StripHTML(req.Text)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comment := &model.Comment{PostID: postID, AuthorID: userID, Text: req.Text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Likes = []int64{}
	s.attachAuthor(ctx, comment)

	log.Printf("[CommentService] User %d commented on post %d", userID, postID)
	return comment, nil
}

// Update replaces a comment's text. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, commentID, userID int64, req model.CommentRequest) (*model.Comment, error) {
	req.Text = content.StripHTML(req.Text)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != userID {
		return nil, model.ErrNotCommentOwner
	}

	comment, err := s.commentRepo.Update(ctx, commentID, req.Text)
	if err != nil {
		return nil, err
	}
	comments := []model.Comment{*comment}
	if err := annotateComments(ctx, s.commentRepo, comments); err != nil {
		return nil, err
	}
	s.attachAuthor(ctx, &comments[0])

	log.Printf("[CommentService] User %d updated comment %d", userID, commentID)
	return &comments[0], nil
}

// Delete removes a comment. The author and admins may delete.
func (s *CommentService) Delete(ctx context.Context, commentID int64, actor model.Viewer) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor.UserID && !actor.IsAdmin() {
		return model.ErrNotCommentOwner
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	log.Printf("[CommentService] User %d deleted comment %d from post %d", actor.UserID, commentID, comment.PostID)
	return nil
}

// List returns a post's comments, newest first, with author and likes.
func (s *CommentService) List(ctx context.Context, postID int64) ([]model.Comment, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := annotateComments(ctx, s.commentRepo, comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

// ToggleLike likes the comment if userID has not, otherwise removes the like.
func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID int64) (*model.LikeResult, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	liked, count, err := s.commentRepo.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	return &model.LikeResult{Likes: count, Liked: liked}, nil
}

// attachAuthor fills the author block; a failed lookup leaves it empty.
func (s *CommentService) attachAuthor(ctx context.Context, comment *model.Comment) {
	author, err := s.userRepo.GetByID(ctx, comment.AuthorID)
	if err != nil {
		log.Printf("[CommentService] Failed to load author %d: %v", comment.AuthorID, err)
		return
	}
	summary := author.Summary()
	summary.Email = ""
	comment.Author = &summary
}

// annotateComments loads likes for every comment in one query.
func annotateComments(ctx context.Context, repo repository.CommentRepository, comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]int64, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	likes, err := repo.LikesForComments(ctx, ids)
	if err != nil {
		return fmt.Errorf("load comment likes: %w", err)
	}
	for i := range comments {
		comments[i].Likes = likes[comments[i].ID]
		if comments[i].Likes == nil {
			comments[i].Likes = []int64{}
		}
		comments[i].LikeCount = len(comments[i].Likes)
	}
	return nil
}
