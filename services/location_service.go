package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LastLocation is a technician's most recent reported position.
type LastLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TechnicianLocationView is one roster entry of the fleet view.
type TechnicianLocationView struct {
	ID           uint          `json:"id"`
	Name         string        `json:"name"`
	Username     string        `json:"username"`
	Phone        *string       `json:"phone"`
	CompanyID    *uint         `json:"company_id"`
	CompanyName  *string       `json:"company_name"`
	LastLocation *LastLocation `json:"last_location"`
	IsOnline     bool          `json:"is_online"`
}

// LocationService aggregates technician positions into the fleet view.
type LocationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLocationService creates a LocationService over db.
func NewLocationService(db *gorm.DB) *LocationService {
	return &LocationService{db: db, now: time.Now}
}

// ReportLocation replaces the caller's last known position.
func (s *LocationService) ReportLocation(ctx context.Context, identity policy.Identity, latitude, longitude, accuracy *float64) (*models.TechnicianLocation, error) {
	if err := policy.AuthorizeLocationReport(identity); err != nil {
		return nil, denied(err)
	}
	if latitude == nil || longitude == nil {
		return nil, invalidInput("LOCATION_REQUIRED", "latitude and longitude are required")
	}

	location := models.TechnicianLocation{
		UserID:    identity.UserID,
		Latitude:  *latitude,
		Longitude: *longitude,
		Accuracy:  accuracy,
		UpdatedAt: s.now(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "accuracy", "updated_at"}),
	}).Create(&location).Error
	if err != nil {
		return nil, internal("failed to save location", err)
	}

	slog.DebugContext(ctx, "location reported", "user_id", identity.UserID)
	return &location, nil
}

// ListTechnicianLocations returns every technician in the caller's scope
// with its last position, including technicians that never reported one.
// Entries are ordered by most recent report; never-reported technicians come last.
func (s *LocationService) ListTechnicianLocations(ctx context.Context, identity policy.Identity) ([]TechnicianLocationView, error) {
	if err := policy.AuthorizeFleetView(identity); err != nil {
		return nil, denied(err)
	}

	var technicians []models.User
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, policy.KindTechnician)).
		Preload("Company").
		Find(&technicians).Error
	if err != nil {
		return nil, internal("failed to load technicians", err)
	}
	if len(technicians) == 0 {
		return []TechnicianLocationView{}, nil
	}

	ids := make([]uint, len(technicians))
	for i, t := range technicians {
		ids[i] = t.ID
	}

	var locations []models.TechnicianLocation
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&locations).Error; err != nil {
		return nil, internal("failed to load locations", err)
	}
	byUser := make(map[uint]models.TechnicianLocation, len(locations))
	for _, l := range locations {
		byUser[l.UserID] = l
	}

	now := s.now()
	views := make([]TechnicianLocationView, 0, len(technicians))
	for _, t := range technicians {
		view := TechnicianLocationView{
			ID:        t.ID,
			Name:      t.DisplayName(),
			Username:  t.Username,
			Phone:     t.Phone,
			CompanyID: t.CompanyID,
		}
		if t.Company != nil {
			name := t.Company.Name
			view.CompanyName = &name
		}
		if l, ok := byUser[t.ID]; ok {
			view.LastLocation = &LastLocation{
				Latitude:  l.Latitude,
				Longitude: l.Longitude,
				Accuracy:  l.Accuracy,
				UpdatedAt: l.UpdatedAt,
			}
			view.IsOnline = l.IsOnline(now)
		}
		views = append(views, view)
	}

	sortRoster(views)
	return views, nil
}

// PruneStale deletes positions older than maxAge and returns how many were removed.
func (s *LocationService) PruneStale(ctx context.Context, identity policy.Identity, maxAge time.Duration) (int64, error) {
	if err := policy.AuthorizeLocationPrune(identity); err != nil {
		return 0, denied(err)
	}
	if maxAge < models.OnlineWindow {
		return 0, invalidInput("VALIDATION_ERROR", "retention must be at least the online window")
	}

	cutoff := s.now().Add(-maxAge)
	result := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.TechnicianLocation{})
	if result.Error != nil {
		return 0, internal("failed to prune locations", result.Error)
	}

	slog.InfoContext(ctx, "stale locations pruned", "removed", result.RowsAffected, "cutoff", cutoff)
	return result.RowsAffected, nil
}

func sortRoster(views []TechnicianLocationView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].LastLocation, views[j].LastLocation
		switch {
		case a != nil && b != nil:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return views[i].ID < views[j].ID
	})
}
