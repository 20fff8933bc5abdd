package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkwell/internal/model"
)

const userColumns = `id, username, email, password_hashed, bio, avatar_url, avatar_key, role, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed, bio, avatar_url, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHashed,
		u.Bio,
		u.AvatarURL,
		u.Role,
	)

	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByIdentifier retrieves a user by username or email
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, identifier)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	return &u, nil
}

// GetSummaries loads author blocks for a batch of user ids.
func (r *userRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	result := make(map[int64]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, username, email, avatar_url, bio FROM users WHERE id = ANY($1)`
	var users []model.UserSummary
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// UpdateProfile applies the non-nil fields of req.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users SET
			bio        = COALESCE($2, bio),
			avatar_url = COALESCE($3, avatar_url),
			avatar_key = COALESCE($4, avatar_key),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id, req.Bio, req.AvatarURL, req.AvatarKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &u, nil
}

// List returns users whose username or email contains search, newest first.
func (r *userRepository) List(ctx context.Context, search string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}
	if search != "" {
		query += ` WHERE username ILIKE $1 OR email ILIKE $1`
		args = append(args, containsPattern(search))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Delete removes a user together with their posts, comments, ratings, likes
// and bookmarks, plus every row other users hold against those posts.
func (r *userRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var avatarKey *string
	err = tx.GetContext(ctx, &avatarKey, `SELECT avatar_key FROM users WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}

	var keys []string
	err = tx.SelectContext(ctx, &keys, `SELECT image_key FROM posts WHERE author_id = $1 AND image_key IS NOT NULL`, id)
	if err != nil {
		return nil, fmt.Errorf("collect post images: %w", err)
	}
	if avatarKey != nil && *avatarKey != "" {
		keys = append(keys, *avatarKey)
	}

	const ownPosts = `SELECT id FROM posts WHERE author_id = $1`
	steps := []struct {
		name  string
		query string
	}{
		{"bookmarks", `DELETE FROM user_bookmarks WHERE user_id = $1 OR post_id IN (` + ownPosts + `)`},
		{"ratings", `DELETE FROM post_ratings WHERE user_id = $1 OR post_id IN (` + ownPosts + `)`},
		{"post likes", `DELETE FROM post_likes WHERE user_id = $1 OR post_id IN (` + ownPosts + `)`},
		{"comment likes", `DELETE FROM comment_likes WHERE user_id = $1 OR comment_id IN (
			SELECT id FROM comments WHERE author_id = $1 OR post_id IN (` + ownPosts + `))`},
		{"comments", `DELETE FROM comments WHERE author_id = $1 OR post_id IN (` + ownPosts + `)`},
		{"posts", `DELETE FROM posts WHERE author_id = $1`},
		{"user", `DELETE FROM users WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return nil, fmt.Errorf("delete %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return keys, nil
}
