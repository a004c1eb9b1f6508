package services

import (
	"testing"
	"time"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gbd-solar/solartech-api/tests/testutil"
	"gorm.io/gorm"
)

// world is a small two-company dataset shared by service tests.
type world struct {
	db       *gorm.DB
	companyA models.Company
	companyB models.Company
	master   policy.Identity
	dittaA   policy.Identity
	dittaB   policy.Identity
	tecA1    policy.Identity
	tecA2    policy.Identity
	tecA3    policy.Identity
	tecB1    policy.Identity
	lonely   policy.Identity
}

func newWorld(t *testing.T) *world {
	t.Helper()

	db := testutil.NewTestDB(t)
	w := &world{db: db}
	w.companyA = testutil.CreateCompany(t, db, "Sole Srl")
	w.companyB = testutil.CreateCompany(t, db, "Luce Spa")

	identity := func(username string, role models.Role, companyID *uint) policy.Identity {
		u := testutil.CreateUser(t, db, username, role, companyID)
		return policy.Identity{UserID: u.ID, Username: u.Username, Role: u.Role, CompanyID: u.CompanyID}
	}

	w.master = identity("admin", models.RoleMaster, nil)
	w.dittaA = identity("ditta-a", models.RoleDitta, &w.companyA.ID)
	w.dittaB = identity("ditta-b", models.RoleDitta, &w.companyB.ID)
	w.tecA1 = identity("tec-a1", models.RoleTecnico, &w.companyA.ID)
	w.tecA2 = identity("tec-a2", models.RoleTecnico, &w.companyA.ID)
	w.tecA3 = identity("tec-a3", models.RoleTecnico, &w.companyA.ID)
	w.tecB1 = identity("tec-b1", models.RoleTecnico, &w.companyB.ID)
	w.lonely = identity("lonely", models.RoleDitta, nil)

	return w
}

// fixedClock returns a controllable clock starting at start.
type fixedClock struct {
	current time.Time
}

func (c *fixedClock) now() time.Time {
	return c.current
}

func (c *fixedClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}
