package controllers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRouter(identity policy.Identity) *gin.Engine {
	router, v1 := setupTestRouter(identity)
	users := v1.Group("/users")
	users.GET("", ListUsers)
	users.GET("/technicians", ListTechnicians)
	users.GET("/:id", GetUser)
	users.POST("", CreateUser)
	users.PUT("/:id", UpdateUser)
	users.DELETE("/:id", DeleteUser)
	users.POST("/:id/reset-password", ResetPassword)
	return router
}

func userPath(id uint, suffix string) string {
	return "/api/v1/users/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name         string
		identity     policy.Identity
		body         map[string]interface{}
		expectedCode int
		errorCode    string
		wantRole     models.Role
		wantCompany  *uint
	}{
		{
			name:         "ditta request is forced to tecnico of own company",
			identity:     f.dittaA,
			body:         map[string]interface{}{"username": "nuovo", "password": "segreto1", "role": "MASTER", "company_id": f.companyB.ID},
			expectedCode: http.StatusCreated,
			wantRole:     models.RoleTecnico,
			wantCompany:  &f.companyA.ID,
		},
		{
			name:         "master creates a ditta",
			identity:     f.master,
			body:         map[string]interface{}{"username": "capo-b", "password": "segreto1", "role": "ditta", "company_id": f.companyB.ID},
			expectedCode: http.StatusCreated,
			wantRole:     models.RoleDitta,
			wantCompany:  &f.companyB.ID,
		},
		{
			name:         "tecnico may not create identities",
			identity:     f.tecA1,
			body:         map[string]interface{}{"username": "abusivo", "password": "segreto1"},
			expectedCode: http.StatusForbidden,
			errorCode:    "FORBIDDEN",
		},
		{
			name:         "duplicate username",
			identity:     f.master,
			body:         map[string]interface{}{"username": "tec-a1", "password": "segreto1", "role": "TECNICO"},
			expectedCode: http.StatusConflict,
			errorCode:    "USERNAME_TAKEN",
		},
		{
			name:         "missing password",
			identity:     f.master,
			body:         map[string]interface{}{"username": "senza-password"},
			expectedCode: http.StatusBadRequest,
			errorCode:    "VALIDATION_ERROR",
		},
		{
			name:         "unknown role",
			identity:     f.master,
			body:         map[string]interface{}{"username": "strano", "password": "segreto1", "role": "OWNER"},
			expectedCode: http.StatusBadRequest,
			errorCode:    "INVALID_ROLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := performRequest(t, userRouter(tt.identity), http.MethodPost, "/api/v1/users", tt.body)

			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			if tt.errorCode != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.errorCode, env.Error.Code)
				return
			}

			var user models.User
			decodeData(t, env, &user)
			assert.Equal(t, tt.wantRole, user.Role)
			require.NotNil(t, user.CompanyID)
			assert.Equal(t, *tt.wantCompany, *user.CompanyID)
			assert.NotContains(t, w.Body.String(), "password_hash")
		})
	}
}

func TestListUsersIsScoped(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, userRouter(f.dittaA), http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	decodeData(t, env, &users)
	for _, u := range users {
		require.NotNil(t, u.CompanyID)
		assert.Equal(t, f.companyA.ID, *u.CompanyID)
	}
	assert.Len(t, users, 3)

	w, env = performRequest(t, userRouter(f.tecA1), http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &users)
	require.Len(t, users, 1)
	assert.Equal(t, f.tecA1.UserID, users[0].ID)
}

func TestListTechnicians(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, userRouter(f.master), http.MethodGet, "/api/v1/users/technicians", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var technicians []models.User
	decodeData(t, env, &technicians)
	assert.Len(t, technicians, 3)
	for _, u := range technicians {
		assert.Equal(t, models.RoleTecnico, u.Role)
	}
}

func TestGetUserOutsideScope(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, userRouter(f.dittaA), http.MethodGet, userPath(f.tecB1.UserID, ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = performRequest(t, userRouter(f.dittaA), http.MethodGet, userPath(f.tecA2.UserID, ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, userRouter(f.tecA1), http.MethodPut, userPath(f.tecA1.UserID, ""), map[string]string{"name": "Giulia Bianchi"})
	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	decodeData(t, env, &user)
	assert.Equal(t, "Giulia Bianchi", user.Name)

	w, env = performRequest(t, userRouter(f.tecA1), http.MethodPut, userPath(f.tecA2.UserID, ""), map[string]string{"name": "Altro"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, userRouter(f.dittaA), http.MethodDelete, userPath(f.tecA2.UserID, ""), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, _ = performRequest(t, userRouter(f.master), http.MethodDelete, userPath(f.tecA2.UserID, ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = performRequest(t, userRouter(f.master), http.MethodGet, userPath(f.tecA2.UserID, ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, userRouter(f.dittaA), http.MethodPost, userPath(f.tecA1.UserID, "/reset-password"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Password string `json:"password"`
	}
	decodeData(t, env, &body)
	assert.Len(t, body.Password, 8)

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.tecA1.UserID).Error)
	assert.True(t, services.CheckPassword(stored.PasswordHash, body.Password))

	w, env = performRequest(t, userRouter(f.dittaA), http.MethodPost, userPath(f.tecB1.UserID, "/reset-password"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}
