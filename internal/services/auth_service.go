package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/auth"
	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/pkg/crypto"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
)

// LoginInput carries the credentials posted to the login endpoint.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult bundles the issued token with the authenticated account.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService authenticates accounts and issues access tokens.
type AuthService struct {
	db  *gorm.DB
	jwt *auth.JWTService
}

func NewAuthService(db *gorm.DB, jwt *auth.JWTService) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{db: db, jwt: jwt}, nil
}

// Login verifies the credentials and issues a signed access token.
// Unknown address, bad password and deactivated account all collapse to
// the same 401 so the endpoint does not leak which one failed.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth service: load user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}
	if !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, apperrors.ErrUnauthorized
	}

	token, err := s.jwt.GenerateAccessToken(&user)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("auth service: stamp last login: %w", err)
	}
	user.LastLoginAt = &now

	return &LoginResult{Token: token, User: &user}, nil
}
