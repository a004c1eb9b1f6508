package controllers

import (
	"net/http"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the credential payload for POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	authService := services.NewAuthService(config.GetDB(), services.GetTokenIssuer())
	result, err := authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, result)
}

// Me handles GET /api/v1/auth/me - returns the authenticated user's profile
func Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	authService := services.NewAuthService(config.GetDB(), services.GetTokenIssuer())
	user, err := authService.Me(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, user)
}
