package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farm_backend/internal/models"
	"farm_backend/internal/repositories"
	"farm_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role" binding:"required,oneof=admin supervisor staff"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

type authService struct {
	authRepo repositories.AuthRepository
	db       repositories.SQLExecutor
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db repositories.SQLExecutor, tokens *utils.TokenManager) AuthService {
	return &authService{authRepo: authRepo, db: db, tokens: tokens}
}

// RegisterUser creates an account with a bcrypt-hashed password.
func (s *authService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	if utils.IsEmpty(req.Username) {
		return nil, fieldError("username", "is required", nil)
	}
	username := strings.TrimSpace(req.Username)
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		FullName: utils.TrimPtr(req.FullName),
		Role:     req.Role,
	}
	if _, err := s.authRepo.CreateUser(ctx, s.db, user, string(hashed)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser checks the password and issues an access token.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHash, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResponse{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin on an empty install. An existing
// account with that username is left untouched.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	if utils.IsEmpty(username) || password == "" {
		return nil
	}
	_, _, err := s.authRepo.FindUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}
	if _, err := s.RegisterUser(ctx, RegisterUserRequest{Username: username, Password: password, Role: models.RoleAdmin}); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return nil
		}
		return err
	}
	utils.LogInfo("Bootstrap admin created", map[string]interface{}{"username": username})
	return nil
}
