package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OptionalID is a tri-state foreign key in partial updates:
// absent from the payload (Set == false), explicitly null (Set, Value == nil),
// or set to a value. Ids are accepted both as JSON numbers and numeric strings.
type OptionalID struct {
	Set   bool
	Value *uint
}

// SetID returns an OptionalID carrying id.
func SetID(id uint) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// ClearID returns an OptionalID that nulls the reference.
func ClearID() OptionalID {
	return OptionalID{Set: true}
}

// Changes reports whether applying o would alter current.
func (o OptionalID) Changes(current *uint) bool {
	if !o.Set {
		return false
	}
	if o.Value == nil || current == nil {
		return o.Value != current
	}
	return *o.Value != *current
}

// UnmarshalJSON is only invoked when the key is present in the payload.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var raw string
	if len(trimmed) > 0 && trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
	} else {
		raw = string(trimmed)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid id %q", raw)
	}
	value := uint(id)
	o.Value = &value
	return nil
}

// MarshalJSON renders the value or null.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatUint(uint64(*o.Value), 10)), nil
}
