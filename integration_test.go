package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gbd-solar/solartech-api/client"
	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gbd-solar/solartech-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const seedPassword = "pannelli-2025"

// APISuite drives the full router over HTTP, from login to scoped reads.
type APISuite struct {
	suite.Suite
	db       *gorm.DB
	server   *httptest.Server
	cfg      *config.Config
	companyA models.Company
	companyB models.Company
	users    map[string]models.User
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	t := s.T()
	s.db = testutil.NewTestDB(t)
	config.SetDB(s.db)

	s.cfg = &config.Config{
		GoEnv:              "test",
		JWTSecret:          testutil.TestJWTSecret,
		JWTIssuer:          testutil.TestJWTIssuer,
		JWTAudience:        testutil.TestJWTAudience,
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: []string{"*"},
		UploadDir:          t.TempDir(),
		LocationRetention:  24 * time.Hour,
	}
	s.Require().NoError(setupServices(context.Background(), s.cfg))

	s.companyA = testutil.CreateCompany(t, s.db, "Sole Srl")
	s.companyB = testutil.CreateCompany(t, s.db, "Luce Spa")

	hash, err := services.HashPassword(seedPassword)
	s.Require().NoError(err)
	s.users = map[string]models.User{}
	seed := func(username string, role models.Role, companyID *uint) {
		u := testutil.CreateUser(t, s.db, username, role, companyID)
		s.Require().NoError(s.db.Model(&u).Update("password_hash", hash).Error)
		s.users[username] = u
	}
	seed("admin", models.RoleMaster, nil)
	seed("ditta-a", models.RoleDitta, &s.companyA.ID)
	seed("tec-a1", models.RoleTecnico, &s.companyA.ID)
	seed("tec-a2", models.RoleTecnico, &s.companyA.ID)
	seed("tec-b1", models.RoleTecnico, &s.companyB.ID)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.server = httptest.NewServer(setupRouter(s.cfg, logger))
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
	config.SetDB(nil)
	services.SetPhotoStorage(nil)
	services.SetTokenIssuer(nil)
}

func (s *APISuite) login(username string) string {
	body, _ := json.Marshal(map[string]string{"username": username, "password": seedPassword})
	resp, err := http.Post(s.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	s.Require().NotEmpty(envelope.Data.Token)
	return envelope.Data.Token
}

func (s *APISuite) call(method, path, token string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func errorCodeOf(body map[string]interface{}) string {
	errObj, _ := body["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

func (s *APISuite) TestHealthIsPublic() {
	status, body := s.call(http.MethodGet, "/api/v1/health", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal(true, body["success"])
}

func (s *APISuite) TestMissingAndInvalidCredentials() {
	status, body := s.call(http.MethodGet, "/api/v1/interventions", "", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("UNAUTHENTICATED", errorCodeOf(body))

	status, body = s.call(http.MethodGet, "/api/v1/interventions", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("INVALID_CREDENTIAL", errorCodeOf(body))

	expired := testutil.MintToken(s.T(), s.users["admin"].ID, "admin", "MASTER", nil, -time.Hour)
	status, body = s.call(http.MethodGet, "/api/v1/interventions", expired, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("INVALID_CREDENTIAL", errorCodeOf(body))
}

func (s *APISuite) TestDittaWorkflowStaysInsideCompany() {
	token := s.login("ditta-a")

	status, body := s.call(http.MethodPost, "/api/v1/interventions", token, map[string]interface{}{
		"client_name":    "Mario Rossi",
		"client_address": "Via Roma 1, Milano",
		"technician_id":  s.users["tec-a1"].ID,
		"company_id":     s.companyB.ID,
	})
	s.Require().Equal(http.StatusCreated, status, body)
	data := body["data"].(map[string]interface{})
	s.EqualValues(s.companyA.ID, data["company_id"])
	id := uint(data["id"].(float64))

	foreign := testutil.CreateIntervention(s.T(), s.db, "Gamma", &s.companyB.ID, nil)

	status, body = s.call(http.MethodGet, "/api/v1/interventions", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Len(body["data"], 1)

	status, _ = s.call(http.MethodGet, "/api/v1/interventions/"+strconv.Itoa(int(foreign.ID)), token, nil)
	s.Equal(http.StatusNotFound, status)

	status, body = s.call(http.MethodPut, "/api/v1/interventions/"+strconv.Itoa(int(foreign.ID))+"/status", token, map[string]string{"status": "closed"})
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", errorCodeOf(body))

	status, _ = s.call(http.MethodPut, "/api/v1/interventions/"+strconv.Itoa(int(id))+"/status", token, map[string]string{"status": "in_corso"})
	s.Equal(http.StatusOK, status)

	status, body = s.call(http.MethodPost, "/api/v1/users", token, map[string]interface{}{
		"username": "tec-a3", "password": "segreto1", "role": "MASTER",
	})
	s.Require().Equal(http.StatusCreated, status)
	created := body["data"].(map[string]interface{})
	s.Equal("TECNICO", created["role"])
	s.EqualValues(s.companyA.ID, created["company_id"])
}

func (s *APISuite) TestRoleGates() {
	tecnico := s.login("tec-a1")

	status, body := s.call(http.MethodGet, "/api/v1/locations/technicians", tecnico, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", errorCodeOf(body))

	status, _ = s.call(http.MethodPost, "/api/v1/companies", tecnico, map[string]string{"name": "Abusiva"})
	s.Equal(http.StatusForbidden, status)

	ditta := s.login("ditta-a")
	status, _ = s.call(http.MethodPost, "/api/v1/locations/update", ditta, map[string]float64{"latitude": 45, "longitude": 9})
	s.Equal(http.StatusForbidden, status)

	status, _ = s.call(http.MethodDelete, "/api/v1/locations/stale", ditta, nil)
	s.Equal(http.StatusForbidden, status)

	master := s.login("admin")
	status, body = s.call(http.MethodDelete, "/api/v1/locations/stale", master, nil)
	s.Equal(http.StatusOK, status)
	s.Equal("24h0m0s", body["data"].(map[string]interface{})["older_than"])
}

func (s *APISuite) TestFleetViewThroughClient() {
	ctx := context.Background()

	reporter := client.NewClient(s.server.URL, client.NewSession(nil))
	_, err := reporter.Login(ctx, "tec-a1", seedPassword)
	s.Require().NoError(err)
	s.Require().NoError(reporter.ReportLocation(ctx, 45.4642, 9.19, nil))

	silent := client.NewClient(s.server.URL, client.NewSession(nil))
	_, err = silent.Login(ctx, "tec-a2", seedPassword)
	s.Require().NoError(err)
	s.Require().NoError(silent.ReportLocation(ctx, 0, 0, nil))

	viewer := client.NewClient(s.server.URL, client.NewSession(nil))
	_, err = viewer.Login(ctx, "ditta-a", seedPassword)
	s.Require().NoError(err)

	roster, err := viewer.ListTechnicianLocations(ctx)
	s.Require().NoError(err)
	s.Len(roster, 2)
	s.Equal(2, client.OnlineCount(roster))

	markers := client.FleetMarkers(roster)
	s.Require().Len(markers, 1)
	s.Equal(s.users["tec-a1"].ID, markers[0].TechnicianID)
}

func (s *APISuite) TestClientLogsOutOnRejectedCredential() {
	loggedOut := false
	session := client.NewSession(func() { loggedOut = true })
	c := client.NewClient(s.server.URL, session)

	_, err := c.Login(context.Background(), "tec-a1", seedPassword)
	s.Require().NoError(err)

	// rotate the signing key: the stored credential no longer verifies
	s.server.Close()
	rotated := *s.cfg
	rotated.JWTSecret = "a-completely-different-secret-of-32-bytes"
	s.server = httptest.NewServer(setupRouter(&rotated, slog.New(slog.NewTextHandler(io.Discard, nil))))
	c = client.NewClient(s.server.URL, session)

	_, _, err = c.ListInterventions(context.Background(), client.InterventionQuery{})
	s.True(client.IsUnauthorized(err))
	s.True(loggedOut)
	s.False(session.IsAuthenticated())
}

func (s *APISuite) TestMetricsEndpoint() {
	s.call(http.MethodGet, "/api/v1/health", "", nil)

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "solartech_http_requests_total")
}

func TestDatabaseStatusRoute(t *testing.T) {
	config.SetDB(testutil.NewTestDB(t))
	t.Cleanup(func() { config.SetDB(nil) })

	router := setupRouter(&config.Config{JWTSecret: testutil.TestJWTSecret, JWTIssuer: testutil.TestJWTIssuer, JWTAudience: testutil.TestJWTAudience}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/database/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}
