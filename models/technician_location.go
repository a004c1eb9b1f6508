package models

import "time"

// OnlineWindow is how recent a position must be for its technician to count as online.
const OnlineWindow = 5 * time.Minute

// TechnicianLocation is the last known position of a technician. There is
// exactly one row per technician; a new report replaces the previous one.
type TechnicianLocation struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"technician_id"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime:false" json:"updated_at"`
}

// TableName specifies the table name for the TechnicianLocation model
func (TechnicianLocation) TableName() string {
	return "technician_locations"
}

// IsOnline reports whether the position was updated within OnlineWindow of now.
func (l TechnicianLocation) IsOnline(now time.Time) bool {
	return now.Sub(l.UpdatedAt) < OnlineWindow
}
