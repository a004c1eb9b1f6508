package policy

import (
	"fmt"
	"strconv"

	"github.com/gbd-solar/solartech-api/models"
)

// Identity is the caller of a request as decoded from its session credential.
// Role and company come from the credential claims, not from storage.
type Identity struct {
	UserID    uint
	Username  string
	Role      models.Role
	CompanyID *uint
}

// NewIdentity builds an Identity from raw claim values, canonicalizing the
// subject id and the role.
func NewIdentity(subject, username, role string, companyID *uint) (Identity, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, fmt.Errorf("invalid subject %q", subject)
	}

	canonical, err := models.ParseRole(role)
	if err != nil {
		return Identity{}, err
	}

	if companyID != nil && *companyID == 0 {
		companyID = nil
	}

	return Identity{
		UserID:    uint(id),
		Username:  username,
		Role:      canonical,
		CompanyID: companyID,
	}, nil
}

// HasRole reports whether the identity holds role.
func (i Identity) HasRole(role models.Role) bool {
	return i.Role == role
}

// HasAnyRole reports whether the identity holds one of roles.
func (i Identity) HasAnyRole(roles ...models.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsMaster reports whether the identity is unrestricted.
func (i Identity) IsMaster() bool {
	return i.Role == models.RoleMaster
}

// InCompany reports whether the identity is affiliated with companyID.
// An unaffiliated identity belongs to no company, including a nil one.
func (i Identity) InCompany(companyID *uint) bool {
	return sameID(i.CompanyID, companyID)
}

// IsUser reports whether userID refers to the identity itself.
func (i Identity) IsUser(userID *uint) bool {
	return userID != nil && *userID == i.UserID
}

// sameID compares two nullable references; two nulls never match.
func sameID(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}
