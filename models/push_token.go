package models

import "time"

// PushToken is a device push-notification token registered by a user.
type PushToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	Platform  string    `gorm:"not null;default:'unknown'" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the PushToken model
func (PushToken) TableName() string {
	return "push_tokens"
}
