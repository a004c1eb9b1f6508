package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Intervention represents a service call on a solar installation
type Intervention struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Number             string     `gorm:"-" json:"number"` // computed, INT-<year>-<id>
	ClientName         string     `gorm:"not null" json:"client_name"`
	ClientAddress      string     `gorm:"not null" json:"client_address"`
	ClientPhone        *string    `json:"client_phone"`
	ClientEmail        *string    `json:"client_email"`
	Category           string     `gorm:"not null;default:'installation'" json:"category"`
	Priority           string     `gorm:"not null;default:'normal'" json:"priority"`
	Description        *string    `gorm:"type:text" json:"description"`
	Status             Status     `gorm:"type:varchar(30);not null;default:'assigned';index" json:"status"`
	TechnicianID       *uint      `gorm:"index" json:"technician_id"` // nullable, assigned technician
	Technician         *User      `gorm:"foreignKey:TechnicianID;constraint:OnDelete:SET NULL" json:"technician,omitempty"`
	CompanyID          *uint      `gorm:"index" json:"company_id"` // nullable, owning company
	Company            *Company   `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`
	CreatedByID        *uint      `gorm:"column:created_by" json:"created_by"`
	ScheduledDate      *time.Time `json:"scheduled_date"`
	CompletedDate      *time.Time `json:"completed_date"`
	Notes              *string    `gorm:"type:text" json:"notes"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	LocationCapturedAt *time.Time `json:"location_captured_at"`
	Photos             []Photo    `gorm:"foreignKey:InterventionID" json:"photos,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Intervention model
func (Intervention) TableName() string {
	return "interventions"
}

// AfterFind fills the display number on every loaded row.
func (i *Intervention) AfterFind(tx *gorm.DB) error {
	i.Number = i.DisplayNumber()
	return nil
}

// AfterCreate fills the display number once the id is known.
func (i *Intervention) AfterCreate(tx *gorm.DB) error {
	i.Number = i.DisplayNumber()
	return nil
}

// DisplayNumber formats the human-facing number, e.g. INT-2025-007.
func (i Intervention) DisplayNumber() string {
	if i.ID == 0 {
		return ""
	}
	return fmt.Sprintf("INT-%d-%03d", i.CreatedAt.Year(), i.ID)
}
