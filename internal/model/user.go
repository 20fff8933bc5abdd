package model

import (
	"errors"
	"time"
)

// Roles a user can hold. Admins bypass ownership checks on deletes.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultAvatarURL is used when the user never uploaded an avatar and
// DEFAULT_AVATAR_URL is not configured.
const DefaultAvatarURL = "https://res.cloudinary.com/dlu8ltbx1/image/upload/v1758373732/default_avatar_ngs4rn.jpg"

// User represents a user in the system
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Bio            string    `db:"bio" json:"bio"`
	AvatarURL      string    `db:"avatar_url" json:"avatar_url"`
	AvatarKey      *string   `db:"avatar_key" json:"-"`
	Role           string    `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the author block embedded in posts and comments.
type UserSummary struct {
	ID        int64  `db:"id" json:"id"`
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email,omitempty"`
	AvatarURL string `db:"avatar_url" json:"avatar_url"`
	Bio       string `db:"bio" json:"bio"`
}

// Summary returns the public author block for u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
	}
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,alphanumunder"`
	Email    string `json:"email" validate:"required,email,max=1024"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest accepts either a username or an email as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=1024"`
	Password   string `json:"password" validate:"required,min=6"`
}

// LoginResponse is returned after successful login or registration
type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // Seconds until access token expires
}

// UpdateProfileRequest carries the optional profile fields.
// A blank bio leaves the stored bio untouched.
type UpdateProfileRequest struct {
	Bio       *string
	AvatarURL *string
	AvatarKey *string
}

// Viewer is the verified actor attached to a request by the auth middleware.
type Viewer struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the viewer holds the admin role.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// MaxBioLength bounds the profile bio.
const MaxBioLength = 500

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username or email
	ErrUsernameExists = errors.New("username or email already in use")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
