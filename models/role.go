package models

import (
	"fmt"
	"strings"
)

// Role is the canonical, upper-case role of an identity.
type Role string

const (
	RoleMaster  Role = "MASTER"
	RoleDitta   Role = "DITTA"
	RoleTecnico Role = "TECNICO"
)

// Roles lists every role the system knows about.
var Roles = []Role{RoleMaster, RoleDitta, RoleTecnico}

// ParseRole normalizes a role received at the boundary ("tecnico", " Ditta ")
// into its canonical form. Every comparison downstream uses the canonical value.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMaster, RoleDitta, RoleTecnico:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
