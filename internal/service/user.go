package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/model"
	"inkwell/internal/queue"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// UserService handles business logic for user operations
type UserService struct {
	repo             repository.UserRepository
	publisher        queue.Publisher
	defaultAvatarURL string
}

func NewUserService(repo repository.UserRepository, publisher queue.Publisher, defaultAvatarURL string) *UserService {
	if defaultAvatarURL == "" {
		defaultAvatarURL = model.DefaultAvatarURL
	}
	return &UserService{
		repo:             repo,
		publisher:        publisher,
		defaultAvatarURL: defaultAvatarURL,
	}
}

// Register creates a new user account with the default avatar.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHashed: string(hashedPassword),
		AvatarURL:      s.defaultAvatarURL,
		Role:           model.RoleUser,
	}

	// Unique violations come back as ErrUsernameExists
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[UserService] Registered user %d (%s)", user.ID, user.Username)
	return user, nil
}

// Login authenticates a user by username or email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	req.Identifier = strings.ToLower(strings.TrimSpace(req.Identifier))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		// Don't reveal whether the account exists
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the bio and/or avatar. A blank bio is ignored. When
// the avatar changes, the previous uploaded avatar is queued for deletion.
// A rejected update releases the avatar uploaded with it.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.updateProfile(ctx, userID, req)
	if err != nil {
		if req.AvatarKey != nil {
			queue.PublishReleased(ctx, s.publisher, queue.NewMediaReleasedEvent(userID, *req.AvatarKey))
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) updateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		req.Bio = nil
	}
	if req.Bio != nil && len(*req.Bio) > model.MaxBioLength {
		return nil, model.NewValidationError("bio", "must be at most %d characters", model.MaxBioLength)
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Bio == nil && req.AvatarURL == nil {
		return current, nil
	}

	updated, err := s.repo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if req.AvatarURL != nil && current.AvatarKey != nil && current.AvatarURL != s.defaultAvatarURL &&
		(req.AvatarKey == nil || *req.AvatarKey != *current.AvatarKey) {
		queue.PublishReleased(ctx, s.publisher, queue.NewMediaReleasedEvent(userID, *current.AvatarKey))
	}

	log.Printf("[UserService] User %d updated profile", userID)
	return updated, nil
}

// List returns users whose username or email contains search. Admin only,
// enforced by the router.
func (s *UserService) List(ctx context.Context, search string) ([]model.User, error) {
	users, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Delete removes a user and everything they own, then queues their stored
// images for deletion.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	keys, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return err
	}

	queue.PublishReleased(ctx, s.publisher, queue.NewUserDeletedEvent(userID, keys...))

	log.Printf("[UserService] Deleted user %d (%d media objects released)", userID, len(keys))
	return nil
}
