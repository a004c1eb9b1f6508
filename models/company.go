package models

import "time"

// Company is an installer firm owning technicians and interventions.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   *string   `json:"address"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	VATNumber *string   `gorm:"column:vat_number" json:"vat_number"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Company model
func (Company) TableName() string {
	return "companies"
}
