package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// AuthService is the credential store: it checks passwords and issues session credentials.
type AuthService struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

// NewAuthService creates an AuthService over db using tokens to sign credentials.
func NewAuthService(db *gorm.DB, tokens *TokenIssuer) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login verifies username and password and issues a credential.
// Unknown users and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidInput("VALIDATION_ERROR", "username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Company").Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal("failed to load user", err)
	}
	if err != nil || !CheckPassword(user.PasswordHash, password) {
		slog.WarnContext(ctx, "login rejected", "username", username)
		return nil, &Error{Kind: KindUnauthenticated, Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	}

	token, expiresAt, err := s.tokens.Issue(&user)
	if err != nil {
		return nil, internal("failed to issue token", err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me re-reads the caller's account from storage.
func (s *AuthService) Me(ctx context.Context, identity policy.Identity) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Company").First(&user, identity.UserID).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}

// EnsureBootstrapAdmin creates a MASTER account with the given credentials if
// no user with that username exists yet.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     username,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.RoleMaster,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	slog.InfoContext(ctx, "bootstrap admin created", "user_id", admin.ID, "username", username)
	return nil
}
