package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an intervention.
type Status string

const (
	StatusAssigned       Status = "assigned"
	StatusAppointmentSet Status = "appointment_set"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusClosed         Status = "closed"
)

// Statuses is the ordered lifecycle. Transitions are not enforced to move forward.
var Statuses = []Status{
	StatusAssigned,
	StatusAppointmentSet,
	StatusInProgress,
	StatusCompleted,
	StatusClosed,
}

// legacy Italian values still sent by older app builds
var statusAliases = map[string]Status{
	"assegnato":            StatusAssigned,
	"appuntamento_fissato": StatusAppointmentSet,
	"in_corso":             StatusInProgress,
	"completato":           StatusCompleted,
	"chiuso":               StatusClosed,
}

// ParseStatus returns the canonical status for raw, accepting legacy aliases.
func ParseStatus(raw string) (Status, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := statusAliases[value]; ok {
		return alias, nil
	}
	for _, s := range Statuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Ordinal returns the position of s in the lifecycle, or -1 when unknown.
func (s Status) Ordinal() int {
	for i, candidate := range Statuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// StampsCompletion reports whether moving to s records the completion date.
func (s Status) StampsCompletion() bool {
	return s == StatusCompleted
}
