package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles staff authentication for administrators and guides
type AuthService struct {
	users      *database.UserRepository
	jwtService *jwt.Service
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *database.UserRepository, jwtService *jwt.Service, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		logger:     logger,
	}
}

// RolesFor returns the token roles of a staff user
func RolesFor(user *models.User) []string {
	return []string{strings.ToLower(user.Role)}
}

// Login authenticates a staff user and returns tokens.
// The returned user is set even on failure when the email matched, for auditing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResponse, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.Status != models.UserStatusActive {
		return nil, user, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, user, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, RolesFor(user))
	if err != nil {
		return nil, user, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, user, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.jwtService.AccessTokenExpiry()),
		User:         user,
	}, user, nil
}

// Refresh issues a new access token from a refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	// Check if the account is still active
	if user.Status != models.UserStatusActive {
		return nil, ErrAccountInactive
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, RolesFor(user))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(s.jwtService.AccessTokenExpiry()),
		User:        user,
	}, nil
}

// ChangePassword changes a staff user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("Staff password changed")
	return nil
}

// HashPassword hashes a password with the default bcrypt cost
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
