package controllers

import (
	"net/http"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

func userService() *services.UserService {
	return services.NewUserService(config.GetDB())
}

// ListUsers handles GET /api/v1/users
func ListUsers(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	users, err := userService().List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, users)
}

// ListTechnicians handles GET /api/v1/users/technicians
func ListTechnicians(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	technicians, err := userService().ListTechnicians(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, technicians)
}

// GetUser handles GET /api/v1/users/:id
func GetUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := userService().Get(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// CreateUser handles POST /api/v1/users
// DITTA callers always create TECNICO accounts in their own company.
func CreateUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	user, err := userService().Create(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func UpdateUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	user, err := userService().Update(c.Request.Context(), identity, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func DeleteUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := userService().Delete(c.Request.Context(), identity, id); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ResetPassword handles POST /api/v1/users/:id/reset-password
// The generated password is returned once and never stored in clear.
func ResetPassword(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	password, err := userService().ResetPassword(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "password": password})
}
