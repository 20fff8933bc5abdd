package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkwell/internal/model"
)

const postColumns = `p.id, p.author_id, p.title, p.content, p.tags, p.image_url, p.image_key, p.created_at, p.updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post. Tags must already be normalized.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	query := `
		INSERT INTO posts (author_id, title, content, tags, image_url, image_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		post.AuthorID, post.Title, post.Content, post.Tags, post.ImageURL, post.ImageKey,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if missing := missingReference(err, model.ErrUserNotFound); missing != nil {
			return missing
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post.
func (r *postRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// filterClause turns a PostFilter into a WHERE clause and its arguments.
func filterClause(f model.PostFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, containsPattern(s))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", n, n))
	}
	if t := strings.TrimSpace(f.Tag); t != "" {
		args = append(args, strings.ToLower(t))
		conds = append(conds, fmt.Sprintf("$%d = ANY(p.tags)", len(args)))
	}
	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns posts matching filter ordered newest first.
func (r *postRepository) List(ctx context.Context, filter model.PostFilter, limit, offset int) ([]model.Post, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + postColumns + ` FROM posts p` + where + ` ORDER BY p.created_at DESC, p.id DESC`
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Count returns the number of posts matching filter.
func (r *postRepository) Count(ctx context.Context, filter model.PostFilter) (int, error) {
	where, args := filterClause(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts p`+where, args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// ListByIDs retrieves multiple posts and re-orders them to match ids.
// Ids with no post are skipped.
func (r *postRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = ANY($1)`
	var posts []model.Post
	if err := r.db.SelectContext(ctx, &posts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	byID := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// ListSince returns posts created at or after since.
func (r *postRepository) ListSince(ctx context.Context, since time.Time) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.created_at >= $1 ORDER BY p.created_at DESC, p.id DESC`
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, since); err != nil {
		return nil, fmt.Errorf("list posts since: %w", err)
	}
	return posts, nil
}

// ListRatedBy returns every post userID has rated.
func (r *postRepository) ListRatedBy(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN post_ratings r ON r.post_id = p.id
		WHERE r.user_id = $1
		ORDER BY p.id
	`
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("list rated posts: %w", err)
	}
	return posts, nil
}

// Related returns posts other than postID whose tags overlap tags.
func (r *postRepository) Related(ctx context.Context, postID int64, tags []string, limit int) ([]model.Post, error) {
	if len(tags) == 0 {
		return []model.Post{}, nil
	}
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE p.tags && $1 AND p.id <> $2
		ORDER BY p.id
		LIMIT $3
	`
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, pq.Array(tags), postID, limit); err != nil {
		return nil, fmt.Errorf("list related posts: %w", err)
	}
	return posts, nil
}

// Tags returns the distinct tags across all posts, alphabetically.
func (r *postRepository) Tags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.db.SelectContext(ctx, &tags, `SELECT DISTINCT unnest(tags) AS tag FROM posts ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Update writes the mutable fields of post back and refreshes UpdatedAt.
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	query := `
		UPDATE posts
		SET title = $2, content = $3, tags = $4, image_url = $5, image_key = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.GetContext(ctx, &post.UpdatedAt, query,
		post.ID, post.Title, post.Content, post.Tags, post.ImageURL, post.ImageKey)
	if err == sql.ErrNoRows {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post and every row hanging off it.
func (r *postRepository) Delete(ctx context.Context, id int64) (*string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var imageKey *string
	err = tx.GetContext(ctx, &imageKey, `SELECT image_key FROM posts WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock post: %w", err)
	}

	steps := []struct {
		name  string
		query string
	}{
		{"bookmarks", `DELETE FROM user_bookmarks WHERE post_id = $1`},
		{"ratings", `DELETE FROM post_ratings WHERE post_id = $1`},
		{"post likes", `DELETE FROM post_likes WHERE post_id = $1`},
		{"comment likes", `DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE post_id = $1)`},
		{"comments", `DELETE FROM comments WHERE post_id = $1`},
		{"post", `DELETE FROM posts WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return nil, fmt.Errorf("delete %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return imageKey, nil
}

// ToggleLike flips userID's like on postID and returns the new state and count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	liked, err := toggleRow(ctx, tx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, userID)
	if err != nil {
		if missing := missingReference(err, model.ErrPostNotFound); missing != nil {
			return false, 0, missing
		}
		return false, 0, fmt.Errorf("toggle post like: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID); err != nil {
		return false, 0, fmt.Errorf("count post likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit transaction: %w", err)
	}
	return liked, count, nil
}

// LikesForPosts returns the liking user ids per post.
func (r *postRepository) LikesForPosts(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64)
	if len(postIDs) == 0 {
		return result, nil
	}

	type row struct {
		PostID int64 `db:"post_id"`
		UserID int64 `db:"user_id"`
	}
	var rows []row
	query := `SELECT post_id, user_id FROM post_likes WHERE post_id = ANY($1) ORDER BY post_id, created_at`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("get post likes: %w", err)
	}
	for _, rw := range rows {
		result[rw.PostID] = append(result[rw.PostID], rw.UserID)
	}
	return result, nil
}

// CommentCounts returns the live comment count per post.
func (r *postRepository) CommentCounts(ctx context.Context, postIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int)
	if len(postIDs) == 0 {
		return result, nil
	}

	type row struct {
		PostID int64 `db:"post_id"`
		Count  int   `db:"count"`
	}
	var rows []row
	query := `SELECT post_id, COUNT(*) AS count FROM comments WHERE post_id = ANY($1) GROUP BY post_id`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	for _, rw := range rows {
		result[rw.PostID] = rw.Count
	}
	return result, nil
}

// Exists checks if a post exists.
func (r *postRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// toggleRow deletes the row matched by del; when nothing was deleted it runs
// ins instead. It reports whether the row exists afterwards.
func toggleRow(ctx context.Context, tx *sqlx.Tx, del, ins string, args ...interface{}) (bool, error) {
	result, err := tx.ExecContext(ctx, del, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
		return false, err
	}
	return true, nil
}
