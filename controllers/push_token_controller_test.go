package controllers

import (
	"net/http"
	"testing"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushTokenRouter(identity policy.Identity) *gin.Engine {
	router, v1 := setupTestRouter(identity)
	v1.GET("/push-tokens", ListPushTokens)
	v1.POST("/push-tokens/register", RegisterPushToken)
	v1.POST("/push-tokens/unregister", UnregisterPushToken)
	return router
}

func TestPushTokenLifecycle(t *testing.T) {
	f := newFixture(t)
	body := map[string]string{"token": "ExponentPushToken[abc123]", "platform": "Android"}

	w, env := performRequest(t, pushTokenRouter(f.tecA1), http.MethodPost, "/api/v1/push-tokens/register", body)
	require.Equal(t, http.StatusOK, w.Code)
	var token models.PushToken
	decodeData(t, env, &token)
	assert.Equal(t, "android", token.Platform)
	assert.Equal(t, f.tecA1.UserID, token.UserID)

	// the same device logging in as another user moves the token
	w, _ = performRequest(t, pushTokenRouter(f.tecA2), http.MethodPost, "/api/v1/push-tokens/register", body)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = performRequest(t, pushTokenRouter(f.tecA1), http.MethodGet, "/api/v1/push-tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tokens []models.PushToken
	decodeData(t, env, &tokens)
	assert.Empty(t, tokens)

	w, env = performRequest(t, pushTokenRouter(f.tecA1), http.MethodPost, "/api/v1/push-tokens/unregister", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = performRequest(t, pushTokenRouter(f.tecA2), http.MethodPost, "/api/v1/push-tokens/unregister", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterPushTokenRequiresToken(t *testing.T) {
	f := newFixture(t)

	w, env := performRequest(t, pushTokenRouter(f.tecA1), http.MethodPost, "/api/v1/push-tokens/register", map[string]string{"platform": "ios"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
