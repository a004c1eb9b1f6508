package models

import "time"

// Photo is an image attached to an intervention. The bytes live inline
// (base64), behind an external URL, or in object storage under StorageKey.
type Photo struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InterventionID uint      `gorm:"not null;index" json:"intervention_id"`
	PhotoData      *string   `gorm:"type:text" json:"-"`
	PhotoURL       *string   `json:"-"`
	StorageKey     *string   `json:"-"`
	MimeType       string    `gorm:"not null;default:'image/jpeg'" json:"mime_type"`
	Description    *string   `json:"description"`
	UploadedByID   *uint     `gorm:"column:uploaded_by" json:"uploaded_by"`
	URL            string    `gorm:"-" json:"url"` // computed, data URL / external / presigned
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for the Photo model
func (Photo) TableName() string {
	return "photos"
}
