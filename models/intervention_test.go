package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterventionTableName(t *testing.T) {
	assert.Equal(t, "interventions", Intervention{}.TableName())
}

func TestInterventionDisplayNumber(t *testing.T) {
	created := time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "INT-2025-007", Intervention{ID: 7, CreatedAt: created}.DisplayNumber())
	assert.Equal(t, "INT-2025-1234", Intervention{ID: 1234, CreatedAt: created}.DisplayNumber())
	assert.Equal(t, "", Intervention{}.DisplayNumber(), "Unsaved rows have no number")
}

func TestTechnicianLocationIsOnline(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just reported", 0, true},
		{"four minutes old", 4 * time.Minute, true},
		{"exactly at the window", OnlineWindow, false},
		{"six minutes old", 6 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := TechnicianLocation{UpdatedAt: now.Add(-tt.age)}
			assert.Equal(t, tt.want, loc.IsOnline(now))
		})
	}
}
