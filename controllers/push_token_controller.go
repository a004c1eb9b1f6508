package controllers

import (
	"net/http"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

// PushTokenRequest is the payload for the push token endpoints
type PushTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

func pushTokenService() *services.PushTokenService {
	return services.NewPushTokenService(config.GetDB())
}

// RegisterPushToken handles POST /api/v1/push-tokens/register
func RegisterPushToken(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	token, err := pushTokenService().Register(c.Request.Context(), identity, req.Token, req.Platform)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, token)
}

// UnregisterPushToken handles POST /api/v1/push-tokens/unregister
func UnregisterPushToken(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := pushTokenService().Unregister(c.Request.Context(), identity, req.Token); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"unregistered": true})
}

// ListPushTokens handles GET /api/v1/push-tokens
func ListPushTokens(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	tokens, err := pushTokenService().List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, tokens)
}
