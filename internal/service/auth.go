package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/config"
	"inkwell/internal/model"
)

// AuthService issues the signed access tokens the auth middleware verifies.
type AuthService struct {
	config *config.Config
	now    func() time.Time
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{config: cfg, now: time.Now}
}

// IssueLogin builds the login response for an authenticated user.
func (s *AuthService) IssueLogin(user *model.User) (*model.LoginResponse, error) {
	token, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &model.LoginResponse{
		User:        user,
		AccessToken: token,
		ExpiresIn:   s.config.AccessTokenMaxAge,
	}, nil
}

// GenerateAccessToken signs an HS256 token carrying the user's id and role.
func (s *AuthService) GenerateAccessToken(user *model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
