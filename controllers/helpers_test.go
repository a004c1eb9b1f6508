package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/middleware"
	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gbd-solar/solartech-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture seeds two companies with one DITTA and two technicians in the first.
type fixture struct {
	db       *gorm.DB
	companyA models.Company
	companyB models.Company
	master   policy.Identity
	dittaA   policy.Identity
	dittaB   policy.Identity
	tecA1    policy.Identity
	tecA2    policy.Identity
	tecB1    policy.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(nil) })

	f := &fixture{db: db}
	f.companyA = testutil.CreateCompany(t, db, "Sole Srl")
	f.companyB = testutil.CreateCompany(t, db, "Luce Spa")

	identity := func(username string, role models.Role, companyID *uint) policy.Identity {
		u := testutil.CreateUser(t, db, username, role, companyID)
		return policy.Identity{UserID: u.ID, Username: u.Username, Role: u.Role, CompanyID: u.CompanyID}
	}
	f.master = identity("admin", models.RoleMaster, nil)
	f.dittaA = identity("ditta-a", models.RoleDitta, &f.companyA.ID)
	f.dittaB = identity("ditta-b", models.RoleDitta, &f.companyB.ID)
	f.tecA1 = identity("tec-a1", models.RoleTecnico, &f.companyA.ID)
	f.tecA2 = identity("tec-a2", models.RoleTecnico, &f.companyA.ID)
	f.tecB1 = identity("tec-b1", models.RoleTecnico, &f.companyB.ID)
	return f
}

// mockAuthMiddleware attaches identity the way EnsureValidToken does after a valid token.
func mockAuthMiddleware(identity policy.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, identity)
		c.Next()
	}
}

// setupTestRouter returns an engine whose routes run as identity.
func setupTestRouter(identity policy.Identity) (*gin.Engine, *gin.RouterGroup) {
	router := gin.New()
	group := router.Group("/api/v1", mockAuthMiddleware(identity))
	return router, group
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
}

func performRequest(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}
