package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Mario Rossi", User{Username: "mrossi", Name: "Mario Rossi"}.DisplayName())
	assert.Equal(t, "mrossi", User{Username: "mrossi"}.DisplayName(), "Falls back to username")
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Role
		wantErr bool
	}{
		{"lower case master", "master", RoleMaster, false},
		{"upper case ditta", "DITTA", RoleDitta, false},
		{"mixed case with spaces", "  Tecnico ", RoleTecnico, false},
		{"unknown role", "customer", "", true},
		{"empty role", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range Roles {
		assert.True(t, role.Valid(), "%s should be valid", role)
	}
	assert.False(t, Role("master").Valid(), "Only the canonical casing is valid")
}
