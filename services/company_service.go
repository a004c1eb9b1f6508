package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"gorm.io/gorm"
)

// CompanyInput is used for both creation and partial update.
type CompanyInput struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
	VATNumber *string `json:"vat_number"`
}

// CompanyService manages installer companies.
type CompanyService struct {
	db *gorm.DB
}

// NewCompanyService creates a CompanyService over db.
func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// List returns the companies visible to the caller, by name.
func (s *CompanyService) List(ctx context.Context, identity policy.Identity) ([]models.Company, error) {
	companies := []models.Company{}
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, policy.KindCompany)).
		Order("companies.name ASC, companies.id ASC").
		Find(&companies).Error
	if err != nil {
		return nil, internal("failed to list companies", err)
	}
	return companies, nil
}

// Get returns one company; companies outside the caller's scope are not found.
func (s *CompanyService) Get(ctx context.Context, identity policy.Identity, id uint) (*models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, policy.KindCompany)).
		First(&company, id).Error
	if err != nil {
		return nil, lookupError("company", err)
	}
	return &company, nil
}

// Create adds a company. MASTER only.
func (s *CompanyService) Create(ctx context.Context, identity policy.Identity, input CompanyInput) (*models.Company, error) {
	if err := policy.AuthorizeCompanyAdmin(identity); err != nil {
		return nil, denied(err)
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, invalidInput("VALIDATION_ERROR", "name is required")
	}

	company := models.Company{
		Name:      strings.TrimSpace(*input.Name),
		Address:   input.Address,
		Phone:     input.Phone,
		Email:     input.Email,
		VATNumber: input.VATNumber,
	}
	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, internal("failed to create company", err)
	}

	slog.InfoContext(ctx, "company created", "company_id", company.ID, "user_id", identity.UserID)
	return &company, nil
}

// Update changes the provided fields. MASTER or the company's own DITTA.
func (s *CompanyService) Update(ctx context.Context, identity policy.Identity, id uint, input CompanyInput) (*models.Company, error) {
	company, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCompanyUpdate(identity, company.ID); err != nil {
		return nil, denied(err)
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, invalidInput("VALIDATION_ERROR", "name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	setString(updates, "address", input.Address)
	setString(updates, "phone", input.Phone)
	setString(updates, "email", input.Email)
	setString(updates, "vat_number", input.VATNumber)

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(company).Updates(updates).Error; err != nil {
			return nil, internal("failed to update company", err)
		}
		slog.InfoContext(ctx, "company updated", "company_id", company.ID, "user_id", identity.UserID)
	}

	return s.fetch(ctx, company.ID)
}

// Delete removes a company, detaching its users and interventions. MASTER only.
func (s *CompanyService) Delete(ctx context.Context, identity policy.Identity, id uint) error {
	if err := policy.AuthorizeCompanyAdmin(identity); err != nil {
		return denied(err)
	}
	company, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("company_id = ?", company.ID).
			Update("company_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Intervention{}).Where("company_id = ?", company.ID).
			Update("company_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Company{}, company.ID).Error
	})
	if err != nil {
		return internal("failed to delete company", err)
	}

	slog.InfoContext(ctx, "company deleted", "company_id", company.ID, "user_id", identity.UserID)
	return nil
}

func (s *CompanyService) fetch(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, lookupError("company", err)
	}
	return &company, nil
}
