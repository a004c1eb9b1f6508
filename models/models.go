// Package models holds the gorm models persisted by the SolarTech API.
package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Company{},
		&User{},
		&Intervention{},
		&Photo{},
		&TechnicianLocation{},
		&PushToken{},
	}
}
