package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"gorm.io/gorm"
)

// MinPasswordLength applies to passwords chosen by users.
const MinPasswordLength = 6

// resetAlphabet omits characters that are easy to confuse when read aloud (0/O, 1/l/I).
const resetAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

const resetPasswordLength = 8

// CreateUserInput is the payload of a new identity.
type CreateUserInput struct {
	Username  string            `json:"username" binding:"required"`
	Password  string            `json:"password" binding:"required"`
	Name      string            `json:"name"`
	Email     *string           `json:"email" binding:"omitempty,email"`
	Phone     *string           `json:"phone"`
	Role      string            `json:"role"`
	CompanyID models.OptionalID `json:"company_id"`
}

// UpdateUserInput is a partial profile update. Role and company are immutable.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// UserService manages identities.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService over db.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns the identities visible to the caller, newest first.
func (s *UserService) List(ctx context.Context, identity policy.Identity) ([]models.User, error) {
	return s.list(ctx, identity, policy.KindUser)
}

// ListTechnicians returns the technician roster visible to the caller.
func (s *UserService) ListTechnicians(ctx context.Context, identity policy.Identity) ([]models.User, error) {
	return s.list(ctx, identity, policy.KindTechnician)
}

func (s *UserService) list(ctx context.Context, identity policy.Identity, kind policy.Kind) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, kind)).
		Preload("Company").
		Order("users.created_at DESC, users.id DESC").
		Find(&users).Error
	if err != nil {
		return nil, internal("failed to list users", err)
	}
	return users, nil
}

// Get returns one identity; identities outside the caller's scope are not found.
func (s *UserService) Get(ctx context.Context, identity policy.Identity, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, policy.KindUser)).
		Preload("Company").
		First(&user, id).Error
	if err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}

// Create registers a new identity. A DITTA always creates technicians of its
// own company whatever role and company were requested.
func (s *UserService) Create(ctx context.Context, identity policy.Identity, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, invalidInput("VALIDATION_ERROR", "username and password are required")
	}
	if len(input.Password) < MinPasswordLength {
		return nil, invalidInput("WEAK_PASSWORD", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user := models.User{
		Username:  username,
		Name:      strings.TrimSpace(input.Name),
		Email:     input.Email,
		Phone:     input.Phone,
		CompanyID: input.CompanyID.Value,
	}
	if identity.IsMaster() {
		role, err := models.ParseRole(input.Role)
		if err != nil {
			return nil, invalidInput("INVALID_ROLE", err.Error())
		}
		user.Role = role
	}

	if err := policy.ApplyIdentityCreation(identity, &user); err != nil {
		return nil, denied(err)
	}
	if user.CompanyID != nil && identity.IsMaster() {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", *user.CompanyID).Count(&count).Error; err != nil {
			return nil, internal("failed to load company", err)
		}
		if count == 0 {
			return nil, invalidInput("INVALID_COMPANY", "company not found")
		}
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}
	user.PasswordHash = hash

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("USERNAME_TAKEN", "username is already in use")
		}
		return nil, internal("failed to create user", err)
	}

	slog.InfoContext(ctx, "user created",
		"user_id", user.ID, "role", user.Role, "created_by", identity.UserID)
	return s.reload(ctx, user.ID)
}

// Update changes profile fields of an identity the caller may manage.
func (s *UserService) Update(ctx context.Context, identity policy.Identity, id uint, input UpdateUserInput) (*models.User, error) {
	target, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeUserUpdate(identity, target); err != nil {
		return nil, denied(err)
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Password != nil {
		if len(*input.Password) < MinPasswordLength {
			return nil, invalidInput("WEAK_PASSWORD", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		}
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, internal("failed to hash password", err)
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(target).Updates(updates).Error; err != nil {
			return nil, internal("failed to update user", err)
		}
		slog.InfoContext(ctx, "user updated", "user_id", target.ID, "updated_by", identity.UserID)
	}

	return s.reload(ctx, target.ID)
}

// Delete removes an identity. Its interventions become unassigned and its
// location and push tokens are removed.
func (s *UserService) Delete(ctx context.Context, identity policy.Identity, id uint) error {
	target, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeUserDelete(identity, target); err != nil {
		return denied(err)
	}
	if target.ID == identity.UserID {
		return invalidInput("VALIDATION_ERROR", "you cannot delete your own account")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Intervention{}).Where("technician_id = ?", target.ID).
			Update("technician_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", target.ID).Delete(&models.TechnicianLocation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", target.ID).Delete(&models.PushToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, target.ID).Error
	})
	if err != nil {
		return internal("failed to delete user", err)
	}

	slog.InfoContext(ctx, "user deleted", "user_id", target.ID, "deleted_by", identity.UserID)
	return nil
}

// ResetPassword replaces the target's password with a generated one and returns it.
func (s *UserService) ResetPassword(ctx context.Context, identity policy.Identity, id uint) (string, error) {
	target, err := s.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if err := policy.AuthorizePasswordReset(identity, target); err != nil {
		return "", denied(err)
	}

	password, err := generatePassword(resetPasswordLength)
	if err != nil {
		return "", internal("failed to generate password", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", internal("failed to hash password", err)
	}

	if err := s.db.WithContext(ctx).Model(target).Update("password_hash", hash).Error; err != nil {
		return "", internal("failed to reset password", err)
	}

	slog.InfoContext(ctx, "password reset", "user_id", target.ID, "reset_by", identity.UserID)
	return password, nil
}

func (s *UserService) fetch(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}

func (s *UserService) reload(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Company").First(&user, id).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}

func generatePassword(length int) (string, error) {
	max := big.NewInt(int64(len(resetAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = resetAlphabet[n.Int64()]
	}
	return string(out), nil
}
