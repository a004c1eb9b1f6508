package testutil

import (
	"testing"

	"github.com/gbd-solar/solartech-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database for one test.
// The pool is pinned to a single connection so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateCompany inserts a company with the given name.
func CreateCompany(t *testing.T, db *gorm.DB, name string) models.Company {
	t.Helper()

	company := models.Company{Name: name}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("Failed to create company %q: %v", name, err)
	}
	return company
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role, companyID *uint) models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		Name:         username,
		Role:         role,
		CompanyID:    companyID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %q: %v", username, err)
	}
	return user
}

// CreateIntervention inserts an intervention owned by the given company and technician.
func CreateIntervention(t *testing.T, db *gorm.DB, clientName string, companyID, technicianID *uint) models.Intervention {
	t.Helper()

	intervention := models.Intervention{
		ClientName:    clientName,
		ClientAddress: "Via Roma 1, Milano",
		Category:      "installation",
		Priority:      "normal",
		Status:        models.StatusAssigned,
		CompanyID:     companyID,
		TechnicianID:  technicianID,
	}
	if err := db.Create(&intervention).Error; err != nil {
		t.Fatalf("Failed to create intervention %q: %v", clientName, err)
	}
	return intervention
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
