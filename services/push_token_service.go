package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var knownPlatforms = map[string]bool{"ios": true, "android": true, "web": true}

// PushTokenService keeps device tokens for push notifications.
type PushTokenService struct {
	db *gorm.DB
}

// NewPushTokenService creates a PushTokenService over db.
func NewPushTokenService(db *gorm.DB) *PushTokenService {
	return &PushTokenService{db: db}
}

// Register binds token to the caller, moving it from any previous owner.
func (s *PushTokenService) Register(ctx context.Context, identity policy.Identity, token, platform string) (*models.PushToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalidInput("VALIDATION_ERROR", "token is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !knownPlatforms[platform] {
		platform = "unknown"
	}

	record := models.PushToken{UserID: identity.UserID, Token: token, Platform: platform}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform"}),
	}).Create(&record).Error
	if err != nil {
		return nil, internal("failed to register push token", err)
	}

	var saved models.PushToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&saved).Error; err != nil {
		return nil, lookupError("push token", err)
	}

	slog.InfoContext(ctx, "push token registered", "user_id", identity.UserID, "platform", platform)
	return &saved, nil
}

// Unregister removes one of the caller's tokens.
func (s *PushTokenService) Unregister(ctx context.Context, identity policy.Identity, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalidInput("VALIDATION_ERROR", "token is required")
	}

	result := s.db.WithContext(ctx).
		Where("token = ? AND user_id = ?", token, identity.UserID).
		Delete(&models.PushToken{})
	if result.Error != nil {
		return internal("failed to unregister push token", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("push token")
	}
	return nil
}

// List returns the caller's registered tokens.
func (s *PushTokenService) List(ctx context.Context, identity policy.Identity) ([]models.PushToken, error) {
	tokens := []models.PushToken{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", identity.UserID).Order("id").Find(&tokens).Error; err != nil {
		return nil, internal("failed to load push tokens", err)
	}
	return tokens, nil
}
