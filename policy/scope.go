package policy

import (
	"github.com/gbd-solar/solartech-api/models"
	"gorm.io/gorm"
)

// Kind names the entity a scope applies to.
type Kind string

const (
	KindIntervention Kind = "intervention"
	KindUser         Kind = "user"
	KindTechnician   Kind = "technician"
	KindCompany      Kind = "company"
)

// Scope returns the row filter for identity on kind, ready for db.Scopes.
func Scope(identity Identity, kind Kind) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch kind {
		case KindIntervention:
			return interventionScope(db, identity)
		case KindUser:
			return userScope(db, identity)
		case KindTechnician:
			return userScope(db.Where("users.role = ?", models.RoleTecnico), identity)
		case KindCompany:
			return companyScope(db, identity)
		}
		return empty(db)
	}
}

func interventionScope(db *gorm.DB, identity Identity) *gorm.DB {
	switch identity.Role {
	case models.RoleMaster:
		return db
	case models.RoleDitta:
		if identity.CompanyID == nil {
			return empty(db)
		}
		return db.Where("interventions.company_id = ?", *identity.CompanyID)
	case models.RoleTecnico:
		return db.Where("interventions.technician_id = ?", identity.UserID)
	}
	return empty(db)
}

func userScope(db *gorm.DB, identity Identity) *gorm.DB {
	switch identity.Role {
	case models.RoleMaster:
		return db
	case models.RoleDitta:
		if identity.CompanyID == nil {
			return empty(db)
		}
		return db.Where("users.company_id = ?", *identity.CompanyID)
	case models.RoleTecnico:
		return db.Where("users.id = ?", identity.UserID)
	}
	return empty(db)
}

func companyScope(db *gorm.DB, identity Identity) *gorm.DB {
	if identity.IsMaster() {
		return db
	}
	if !identity.Role.Valid() || identity.CompanyID == nil {
		return empty(db)
	}
	return db.Where("companies.id = ?", *identity.CompanyID)
}

func empty(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// CanViewIntervention is the in-memory form of the intervention scope.
func CanViewIntervention(identity Identity, intervention *models.Intervention) bool {
	switch identity.Role {
	case models.RoleMaster:
		return true
	case models.RoleDitta:
		return identity.InCompany(intervention.CompanyID)
	case models.RoleTecnico:
		return identity.IsUser(intervention.TechnicianID)
	}
	return false
}

// CanViewUser is the in-memory form of the user scope.
func CanViewUser(identity Identity, user *models.User) bool {
	switch identity.Role {
	case models.RoleMaster:
		return true
	case models.RoleDitta:
		return identity.InCompany(user.CompanyID)
	case models.RoleTecnico:
		return user.ID == identity.UserID
	}
	return false
}

// CanViewCompany is the in-memory form of the company scope.
func CanViewCompany(identity Identity, companyID uint) bool {
	if identity.IsMaster() {
		return true
	}
	return identity.Role.Valid() && identity.InCompany(&companyID)
}
