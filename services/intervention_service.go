package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"gorm.io/gorm"
)

// CreateInterventionInput is the payload of a new intervention.
type CreateInterventionInput struct {
	ClientName    string            `json:"client_name" binding:"required"`
	ClientAddress string            `json:"client_address" binding:"required"`
	ClientPhone   *string           `json:"client_phone"`
	ClientEmail   *string           `json:"client_email" binding:"omitempty,email"`
	Category      string            `json:"category"`
	Priority      string            `json:"priority"`
	Description   *string           `json:"description"`
	TechnicianID  models.OptionalID `json:"technician_id"`
	CompanyID     models.OptionalID `json:"company_id"`
	ScheduledDate *time.Time        `json:"scheduled_date"`
	Notes         *string           `json:"notes"`
}

// UpdateInterventionInput is a partial update; nil fields and absent ids are left unchanged.
type UpdateInterventionInput struct {
	ClientName    *string           `json:"client_name"`
	ClientAddress *string           `json:"client_address"`
	ClientPhone   *string           `json:"client_phone"`
	ClientEmail   *string           `json:"client_email" binding:"omitempty,email"`
	Category      *string           `json:"category"`
	Priority      *string           `json:"priority"`
	Description   *string           `json:"description"`
	Status        *string           `json:"status"`
	TechnicianID  models.OptionalID `json:"technician_id"`
	CompanyID     models.OptionalID `json:"company_id"`
	ScheduledDate *time.Time        `json:"scheduled_date"`
	Notes         *string           `json:"notes"`
}

// InterventionFilter narrows a list inside the caller's scope.
type InterventionFilter struct {
	Status       string
	TechnicianID *uint
	CompanyID    *uint
	Search       string
}

// InterventionService is the intervention registry.
type InterventionService struct {
	db      *gorm.DB
	storage PhotoStorage
	now     func() time.Time
}

// NewInterventionService creates the registry over db. storage may be nil.
func NewInterventionService(db *gorm.DB, storage PhotoStorage) *InterventionService {
	return &InterventionService{db: db, storage: storage, now: time.Now}
}

// Create stores a new intervention with status assigned, applying the
// caller's forced ownership.
func (s *InterventionService) Create(ctx context.Context, identity policy.Identity, input CreateInterventionInput) (*models.Intervention, error) {
	if strings.TrimSpace(input.ClientName) == "" || strings.TrimSpace(input.ClientAddress) == "" {
		return nil, invalidInput("VALIDATION_ERROR", "client_name and client_address are required")
	}

	intervention := models.Intervention{
		ClientName:    strings.TrimSpace(input.ClientName),
		ClientAddress: strings.TrimSpace(input.ClientAddress),
		ClientPhone:   input.ClientPhone,
		ClientEmail:   input.ClientEmail,
		Category:      defaultString(input.Category, "installation"),
		Priority:      defaultString(input.Priority, "normal"),
		Description:   input.Description,
		Status:        models.StatusAssigned,
		TechnicianID:  input.TechnicianID.Value,
		CompanyID:     input.CompanyID.Value,
		ScheduledDate: input.ScheduledDate,
		Notes:         input.Notes,
	}

	if err := policy.ApplyInterventionOwnership(identity, &intervention); err != nil {
		return nil, denied(err)
	}
	if intervention.TechnicianID != nil && identity.Role != models.RoleTecnico {
		if err := s.checkTechnician(ctx, identity, *intervention.TechnicianID); err != nil {
			return nil, err
		}
	}
	if intervention.CompanyID != nil && identity.IsMaster() {
		if err := s.checkCompany(ctx, *intervention.CompanyID); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&intervention).Error; err != nil {
		return nil, internal("failed to create intervention", err)
	}

	slog.InfoContext(ctx, "intervention created",
		"intervention_id", intervention.ID, "user_id", identity.UserID, "role", identity.Role)
	return s.load(ctx, intervention.ID)
}

// Get returns one intervention with technician, company and photos resolved.
// Rows outside the caller's scope are reported as not found.
func (s *InterventionService) Get(ctx context.Context, identity policy.Identity, id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, policy.KindIntervention)).
		Preload("Technician").
		Preload("Company").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("photos.created_at ASC, photos.id ASC") }).
		First(&intervention, id).Error
	if err != nil {
		return nil, lookupError("intervention", err)
	}

	s.resolvePhotos(ctx, intervention.Photos)
	return &intervention, nil
}

// List returns the caller's visible interventions, newest first.
func (s *InterventionService) List(ctx context.Context, identity policy.Identity, filter InterventionFilter, page Page) ([]models.Intervention, Pagination, error) {
	page = page.normalize()

	query := s.db.WithContext(ctx).Model(&models.Intervention{}).
		Scopes(policy.Scope(identity, policy.KindIntervention))

	if filter.Status != "" {
		status, err := models.ParseStatus(filter.Status)
		if err != nil {
			return nil, Pagination{}, invalidInput("INVALID_STATUS", err.Error())
		}
		query = query.Where("interventions.status = ?", status)
	}
	if filter.TechnicianID != nil {
		query = query.Where("interventions.technician_id = ?", *filter.TechnicianID)
	}
	if filter.CompanyID != nil {
		query = query.Where("interventions.company_id = ?", *filter.CompanyID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(interventions.client_name) LIKE ? OR LOWER(interventions.client_address) LIKE ?)", like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, internal("failed to count interventions", err)
	}

	var interventions []models.Intervention
	err := query.
		Preload("Technician").
		Preload("Company").
		Order("interventions.created_at DESC, interventions.id DESC").
		Offset(page.offset()).
		Limit(page.Limit).
		Find(&interventions).Error
	if err != nil {
		return nil, Pagination{}, internal("failed to list interventions", err)
	}

	return interventions, page.describe(total), nil
}

// Update applies a partial update after checking the caller may modify the row.
func (s *InterventionService) Update(ctx context.Context, identity policy.Identity, id uint, input UpdateInterventionInput) (*models.Intervention, error) {
	existing, err := s.fetchForMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeReassignment(identity, existing, input.TechnicianID, input.CompanyID); err != nil {
		return nil, denied(err)
	}
	if input.TechnicianID.Value != nil && input.TechnicianID.Changes(existing.TechnicianID) {
		if err := s.checkTechnician(ctx, identity, *input.TechnicianID.Value); err != nil {
			return nil, err
		}
	}
	if input.CompanyID.Value != nil && input.CompanyID.Changes(existing.CompanyID) {
		if err := s.checkCompany(ctx, *input.CompanyID.Value); err != nil {
			return nil, err
		}
	}

	now := s.now()
	updates := map[string]interface{}{}
	setString(updates, "client_name", input.ClientName)
	setString(updates, "client_address", input.ClientAddress)
	setString(updates, "client_phone", input.ClientPhone)
	setString(updates, "client_email", input.ClientEmail)
	setString(updates, "category", input.Category)
	setString(updates, "priority", input.Priority)
	setString(updates, "description", input.Description)
	setString(updates, "notes", input.Notes)
	if input.ScheduledDate != nil {
		updates["scheduled_date"] = *input.ScheduledDate
	}
	if input.TechnicianID.Set {
		updates["technician_id"] = input.TechnicianID.Value
	}
	if input.CompanyID.Set {
		updates["company_id"] = input.CompanyID.Value
	}
	if input.Status != nil {
		status, err := models.ParseStatus(*input.Status)
		if err != nil {
			return nil, invalidInput("INVALID_STATUS", err.Error())
		}
		updates["status"] = status
		if status.StampsCompletion() {
			updates["completed_date"] = now
		}
	}

	if v, ok := updates["client_name"]; ok && strings.TrimSpace(v.(string)) == "" {
		return nil, invalidInput("VALIDATION_ERROR", "client_name cannot be empty")
	}
	if v, ok := updates["client_address"]; ok && strings.TrimSpace(v.(string)) == "" {
		return nil, invalidInput("VALIDATION_ERROR", "client_address cannot be empty")
	}

	if len(updates) == 0 {
		return s.load(ctx, existing.ID)
	}
	updates["updated_at"] = now

	if err := s.apply(ctx, existing.ID, updates); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "intervention updated",
		"intervention_id", existing.ID, "user_id", identity.UserID, "role", identity.Role, "fields", len(updates)-1)
	return s.load(ctx, existing.ID)
}

// UpdateStatus sets the status; moving to completed stamps the completion date.
// Any known status may follow any other.
func (s *InterventionService) UpdateStatus(ctx context.Context, identity policy.Identity, id uint, rawStatus string) (*models.Intervention, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, invalidInput("INVALID_STATUS", err.Error())
	}

	existing, err := s.fetchForMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{"status": status, "updated_at": now}
	if status.StampsCompletion() {
		updates["completed_date"] = now
	}

	if err := s.apply(ctx, existing.ID, updates); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "intervention status changed",
		"intervention_id", existing.ID, "from", existing.Status, "to", status, "user_id", identity.UserID)
	return s.load(ctx, existing.ID)
}

// SetGPS records the site coordinates and stamps the capture time.
func (s *InterventionService) SetGPS(ctx context.Context, identity policy.Identity, id uint, latitude, longitude *float64) (*models.Intervention, error) {
	if latitude == nil || longitude == nil {
		return nil, invalidInput("GPS_REQUIRED", "latitude and longitude are required")
	}

	existing, err := s.fetchForMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"latitude":             *latitude,
		"longitude":            *longitude,
		"location_captured_at": now,
		"updated_at":           now,
	}
	if err := s.apply(ctx, existing.ID, updates); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "intervention location captured", "intervention_id", existing.ID, "user_id", identity.UserID)
	return s.load(ctx, existing.ID)
}

// SetAppointment schedules the visit and moves the intervention to appointment_set.
func (s *InterventionService) SetAppointment(ctx context.Context, identity policy.Identity, id uint, scheduled *time.Time, notes *string) (*models.Intervention, error) {
	if scheduled == nil || scheduled.IsZero() {
		return nil, invalidInput("VALIDATION_ERROR", "scheduled_date is required")
	}

	existing, err := s.fetchForMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"scheduled_date": *scheduled,
		"status":         models.StatusAppointmentSet,
		"updated_at":     s.now(),
	}
	setString(updates, "notes", notes)

	if err := s.apply(ctx, existing.ID, updates); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "appointment set", "intervention_id", existing.ID, "user_id", identity.UserID)
	return s.load(ctx, existing.ID)
}

// Delete removes the intervention and its photos. Stored photo files are
// removed afterwards; failures there are logged, not returned.
func (s *InterventionService) Delete(ctx context.Context, identity policy.Identity, id uint) error {
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeInterventionDelete(identity, existing); err != nil {
		return denied(err)
	}

	var keys []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).
			Where("intervention_id = ? AND storage_key IS NOT NULL", existing.ID).
			Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Where("intervention_id = ?", existing.ID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Intervention{}, existing.ID).Error
	})
	if err != nil {
		return internal("failed to delete intervention", err)
	}

	if s.storage != nil {
		for _, key := range keys {
			if err := s.storage.Delete(ctx, key); err != nil {
				slog.ErrorContext(ctx, "failed to delete stored photo", "key", key, "error", err)
			}
		}
	}

	slog.InfoContext(ctx, "intervention deleted", "intervention_id", existing.ID, "user_id", identity.UserID, "role", identity.Role)
	return nil
}

// fetchForMutation loads the row without scoping so that an existing but
// foreign row is reported as PermissionDenied rather than NotFound.
func (s *InterventionService) fetchForMutation(ctx context.Context, identity policy.Identity, id uint) (*models.Intervention, error) {
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeInterventionMutation(identity, existing); err != nil {
		slog.WarnContext(ctx, "intervention mutation denied",
			"intervention_id", id, "user_id", identity.UserID, "role", identity.Role)
		return nil, denied(err)
	}
	return existing, nil
}

func (s *InterventionService) fetch(ctx context.Context, id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	if err := s.db.WithContext(ctx).First(&intervention, id).Error; err != nil {
		return nil, lookupError("intervention", err)
	}
	return &intervention, nil
}

// apply issues one UPDATE statement for the row.
func (s *InterventionService) apply(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Intervention{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return internal("failed to update intervention", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("intervention")
	}
	return nil
}

func (s *InterventionService) load(ctx context.Context, id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	err := s.db.WithContext(ctx).
		Preload("Technician").
		Preload("Company").
		First(&intervention, id).Error
	if err != nil {
		return nil, lookupError("intervention", err)
	}
	return &intervention, nil
}

func (s *InterventionService) checkTechnician(ctx context.Context, identity policy.Identity, technicianID uint) error {
	var technician models.User
	err := s.db.WithContext(ctx).First(&technician, technicianID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalidInput("INVALID_TECHNICIAN", "technician not found")
	}
	if err != nil {
		return internal("failed to load technician", err)
	}
	if technician.Role != models.RoleTecnico {
		return invalidInput("INVALID_TECHNICIAN", "assigned user is not a technician")
	}
	if err := policy.AuthorizeTechnicianAssignment(identity, &technician); err != nil {
		return denied(err)
	}
	return nil
}

func (s *InterventionService) checkCompany(ctx context.Context, companyID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
		return internal("failed to load company", err)
	}
	if count == 0 {
		return invalidInput("INVALID_COMPANY", "company not found")
	}
	return nil
}

func (s *InterventionService) resolvePhotos(ctx context.Context, photos []models.Photo) {
	for i := range photos {
		resolvePhotoURL(ctx, s.storage, &photos[i])
	}
}

func setString(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}

func defaultString(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
