package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"inkwell/internal/model"
)

type bookmarkRepository struct {
	db *sqlx.DB
}

func NewBookmarkRepository(db *sqlx.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Toggle removes the bookmark if present, otherwise appends it. The returned
// set is read inside the same transaction.
func (r *bookmarkRepository) Toggle(ctx context.Context, userID, postID int64) (bool, []int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	bookmarked, err := toggleRow(ctx, tx,
		`DELETE FROM user_bookmarks WHERE user_id = $1 AND post_id = $2`,
		`INSERT INTO user_bookmarks (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, postID)
	if err != nil {
		if missing := missingReference(err, model.ErrPostNotFound); missing != nil {
			return false, nil, missing
		}
		return false, nil, fmt.Errorf("toggle bookmark: %w", err)
	}

	ids := []int64{}
	err = tx.SelectContext(ctx, &ids, `SELECT post_id FROM user_bookmarks WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return false, nil, fmt.Errorf("list bookmarks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("commit transaction: %w", err)
	}
	return bookmarked, ids, nil
}

func (r *bookmarkRepository) ListPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `SELECT post_id FROM user_bookmarks WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return ids, nil
}
