package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkwell/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, comment.PostID, comment.AuthorID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if missing := missingReference(err, model.ErrPostNotFound); missing != nil {
			return missing
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a single comment.
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	query := `
		SELECT id, post_id, author_id, text, created_at, updated_at
		FROM comments
		WHERE id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Update replaces a comment's text. Ownership is checked by the caller.
func (r *commentRepository) Update(ctx context.Context, id int64, text string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET text = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, post_id, author_id, text, created_at, updated_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, text, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment and its likes.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = $1`, id); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}

	return tx.Commit()
}

// ListByPost returns the comments of a post, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.text, c.created_at, c.updated_at,
		       u.id as "author.id", u.username as "author.username",
		       u.avatar_url as "author.avatar_url", u.bio as "author.bio"
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`

	type commentRow struct {
		ID             int64     `db:"id"`
		PostID         int64     `db:"post_id"`
		AuthorID       int64     `db:"author_id"`
		Text           string    `db:"text"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
		AuthorUserID   int64     `db:"author.id"`
		AuthorUsername string    `db:"author.username"`
		AuthorAvatar   string    `db:"author.avatar_url"`
		AuthorBio      string    `db:"author.bio"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:        row.ID,
			PostID:    row.PostID,
			AuthorID:  row.AuthorID,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Author: &model.UserSummary{
				ID:        row.AuthorUserID,
				Username:  row.AuthorUsername,
				AvatarURL: row.AuthorAvatar,
				Bio:       row.AuthorBio,
			},
		}
	}
	return comments, nil
}

// ToggleLike flips userID's like on a comment and returns the new state and count.
func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	liked, err := toggleRow(ctx, tx,
		`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`,
		`INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		commentID, userID)
	if err != nil {
		if missing := missingReference(err, model.ErrCommentNotFound); missing != nil {
			return false, 0, missing
		}
		return false, 0, fmt.Errorf("toggle comment like: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1`, commentID); err != nil {
		return false, 0, fmt.Errorf("count comment likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit transaction: %w", err)
	}
	return liked, count, nil
}

// LikesForComments returns the liking user ids per comment.
func (r *commentRepository) LikesForComments(ctx context.Context, commentIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64)
	if len(commentIDs) == 0 {
		return result, nil
	}

	type row struct {
		CommentID int64 `db:"comment_id"`
		UserID    int64 `db:"user_id"`
	}
	var rows []row
	query := `SELECT comment_id, user_id FROM comment_likes WHERE comment_id = ANY($1) ORDER BY comment_id, created_at`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(commentIDs)); err != nil {
		return nil, fmt.Errorf("get comment likes: %w", err)
	}
	for _, rw := range rows {
		result[rw.CommentID] = append(result[rw.CommentID], rw.UserID)
	}
	return result, nil
}
