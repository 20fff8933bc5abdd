package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/config"
	"inkwell/internal/model"
)

func TestAuthService_GenerateAccessToken(t *testing.T) {
	// ARRANGE
	cfg := &config.Config{JWTSecret: "test-secret", AccessTokenMaxAge: 900}
	svc := NewAuthService(cfg)
	issued := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return issued }
	user := &model.User{ID: 12, Role: model.RoleAdmin}

	// ACT
	resp, err := svc.IssueLogin(user)

	// ASSERT
	if err != nil {
		t.Fatalf("IssueLogin: %v", err)
	}
	if resp.ExpiresIn != 900 || resp.User != user {
		t.Errorf("response = %+v", resp)
	}

	token, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"].(float64) != 12 {
		t.Errorf("user_id = %v, want 12", claims["user_id"])
	}
	if claims["role"] != model.RoleAdmin {
		t.Errorf("role = %v, want %q", claims["role"], model.RoleAdmin)
	}
	if exp := int64(claims["exp"].(float64)); exp != issued.Add(900*time.Second).Unix() {
		t.Errorf("exp = %d, want %d", exp, issued.Add(900*time.Second).Unix())
	}
}

func TestAuthService_WrongSecretRejected(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "right", AccessTokenMaxAge: 60})

	signed, err := svc.GenerateAccessToken(&model.User{ID: 1, Role: model.RoleUser})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	_, err = jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	})
	if err == nil {
		t.Error("expected signature error with wrong secret")
	}
}
