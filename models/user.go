package models

import (
	"time"
)

// User is an authenticated actor: a MASTER administrator, a company
// administrator (DITTA) or a field technician (TECNICO).
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `json:"name"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	CompanyID    *uint     `gorm:"index" json:"company_id"` // nullable, company affiliation
	Company      *Company  `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// DisplayName falls back to the username when no name was recorded.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
