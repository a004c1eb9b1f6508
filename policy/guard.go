package policy

import (
	"errors"
	"fmt"

	"github.com/gbd-solar/solartech-api/models"
)

// ErrDenied is wrapped by every guard rejection.
var ErrDenied = errors.New("permission denied")

func deny(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDenied, fmt.Sprintf(format, args...))
}

// AuthorizeInterventionMutation guards update, status, GPS, appointment and
// photo operations on an already fetched intervention.
func AuthorizeInterventionMutation(identity Identity, intervention *models.Intervention) error {
	switch identity.Role {
	case models.RoleMaster:
		return nil
	case models.RoleDitta:
		if identity.InCompany(intervention.CompanyID) {
			return nil
		}
		return deny("intervention %d belongs to another company", intervention.ID)
	case models.RoleTecnico:
		if identity.IsUser(intervention.TechnicianID) {
			return nil
		}
		return deny("intervention %d is not assigned to you", intervention.ID)
	}
	return deny("role %q may not modify interventions", identity.Role)
}

// AuthorizeInterventionDelete allows MASTER and the owning company's DITTA.
func AuthorizeInterventionDelete(identity Identity, intervention *models.Intervention) error {
	switch identity.Role {
	case models.RoleMaster:
		return nil
	case models.RoleDitta:
		if identity.InCompany(intervention.CompanyID) {
			return nil
		}
		return deny("intervention %d belongs to another company", intervention.ID)
	}
	return deny("role %q may not delete interventions", identity.Role)
}

// AuthorizeReassignment checks a change of technician or company on an
// intervention. Values equal to the stored ones are not a change. A DITTA
// may only keep work inside its own company and a TECNICO may not reassign.
func AuthorizeReassignment(identity Identity, intervention *models.Intervention, technician, company models.OptionalID) error {
	movesCompany := company.Changes(intervention.CompanyID)
	if !technician.Changes(intervention.TechnicianID) && !movesCompany {
		return nil
	}

	switch identity.Role {
	case models.RoleMaster:
		return nil
	case models.RoleDitta:
		if movesCompany && !identity.InCompany(company.Value) {
			return deny("interventions cannot be moved outside your company")
		}
		return nil
	}
	return deny("role %q may not reassign interventions", identity.Role)
}

// AuthorizeTechnicianAssignment checks that technician may receive work from identity.
func AuthorizeTechnicianAssignment(identity Identity, technician *models.User) error {
	if identity.IsMaster() {
		return nil
	}
	if identity.HasRole(models.RoleDitta) && identity.InCompany(technician.CompanyID) {
		return nil
	}
	return deny("technician %d is outside your company", technician.ID)
}

// ApplyInterventionOwnership forces the ownership fields of a new
// intervention. A DITTA always creates for its own company; a TECNICO always
// creates work assigned to itself.
func ApplyInterventionOwnership(identity Identity, intervention *models.Intervention) error {
	creator := identity.UserID
	intervention.CreatedByID = &creator

	switch identity.Role {
	case models.RoleMaster:
		return nil
	case models.RoleDitta:
		if identity.CompanyID == nil {
			return deny("company administrator has no company")
		}
		company := *identity.CompanyID
		intervention.CompanyID = &company
		return nil
	case models.RoleTecnico:
		intervention.TechnicianID = &creator
		intervention.CompanyID = copyID(identity.CompanyID)
		return nil
	}
	return deny("role %q may not create interventions", identity.Role)
}

// ApplyIdentityCreation forces the role and company of an identity created by
// identity. Values supplied by a DITTA are ignored, not validated.
func ApplyIdentityCreation(identity Identity, user *models.User) error {
	switch identity.Role {
	case models.RoleMaster:
		if !user.Role.Valid() {
			return fmt.Errorf("role %q is not valid", user.Role)
		}
		return nil
	case models.RoleDitta:
		if identity.CompanyID == nil {
			return deny("company administrator has no company")
		}
		user.Role = models.RoleTecnico
		user.CompanyID = copyID(identity.CompanyID)
		return nil
	}
	return deny("role %q may not create users", identity.Role)
}

// AuthorizeUserUpdate allows MASTER on anyone, a DITTA on itself and its
// company's technicians, and anyone on itself.
func AuthorizeUserUpdate(identity Identity, target *models.User) error {
	if identity.IsMaster() || target.ID == identity.UserID {
		return nil
	}
	if identity.HasRole(models.RoleDitta) && target.Role == models.RoleTecnico && identity.InCompany(target.CompanyID) {
		return nil
	}
	return deny("you may not modify user %d", target.ID)
}

// AuthorizeUserDelete is reserved to MASTER.
func AuthorizeUserDelete(identity Identity, target *models.User) error {
	if identity.IsMaster() {
		return nil
	}
	return deny("only MASTER may delete user %d", target.ID)
}

// AuthorizePasswordReset allows MASTER on anyone and a DITTA on technicians
// of its own company.
func AuthorizePasswordReset(identity Identity, target *models.User) error {
	switch identity.Role {
	case models.RoleMaster:
		return nil
	case models.RoleDitta:
		if !identity.InCompany(target.CompanyID) {
			return deny("user %d belongs to another company", target.ID)
		}
		if target.Role != models.RoleTecnico {
			return deny("only technician passwords can be reset")
		}
		return nil
	}
	return deny("role %q may not reset passwords", identity.Role)
}

// AuthorizeCompanyAdmin guards company creation and deletion.
func AuthorizeCompanyAdmin(identity Identity) error {
	if identity.IsMaster() {
		return nil
	}
	return deny("only MASTER may create or delete companies")
}

// AuthorizeCompanyUpdate allows MASTER and the company's own DITTA.
func AuthorizeCompanyUpdate(identity Identity, companyID uint) error {
	if identity.IsMaster() {
		return nil
	}
	if identity.HasRole(models.RoleDitta) && identity.InCompany(&companyID) {
		return nil
	}
	return deny("you may not modify company %d", companyID)
}

// AuthorizePhotoDelete allows MASTER, the DITTA owning the intervention, and
// the technician who uploaded the photo.
func AuthorizePhotoDelete(identity Identity, photo *models.Photo, intervention *models.Intervention) error {
	switch identity.Role {
	case models.RoleMaster:
		return nil
	case models.RoleDitta:
		if identity.InCompany(intervention.CompanyID) {
			return nil
		}
		return deny("photo %d belongs to another company", photo.ID)
	case models.RoleTecnico:
		if identity.IsUser(photo.UploadedByID) {
			return nil
		}
		return deny("photo %d was uploaded by someone else", photo.ID)
	}
	return deny("role %q may not delete photos", identity.Role)
}

// AuthorizeLocationReport restricts position reports to technicians.
func AuthorizeLocationReport(identity Identity) error {
	if identity.HasRole(models.RoleTecnico) {
		return nil
	}
	return deny("only technicians report their location")
}

// AuthorizeFleetView restricts the fleet view to MASTER and DITTA.
func AuthorizeFleetView(identity Identity) error {
	if identity.HasAnyRole(models.RoleMaster, models.RoleDitta) {
		return nil
	}
	return deny("role %q may not view the fleet", identity.Role)
}

// AuthorizeLocationPrune is reserved to MASTER.
func AuthorizeLocationPrune(identity Identity) error {
	if identity.IsMaster() {
		return nil
	}
	return deny("only MASTER may prune locations")
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
