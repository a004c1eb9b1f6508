package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

// StatusRequest is the payload for PUT /interventions/:id/status
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GPSRequest is the payload for PUT /interventions/:id/gps
type GPSRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// AppointmentRequest is the payload for POST /interventions/:id/appointment
type AppointmentRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
	Notes         *string    `json:"notes"`
}

func interventionService() *services.InterventionService {
	return services.NewInterventionService(config.GetDB(), services.GetPhotoStorage())
}

// CreateIntervention handles POST /api/v1/interventions
func CreateIntervention(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input services.CreateInterventionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	intervention, err := interventionService().Create(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, intervention)
}

// ListInterventions handles GET /api/v1/interventions
// Query: status, technician_id, company_id, search, page, limit
func ListInterventions(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	technicianID, ok := queryID(c, "technician_id")
	if !ok {
		return
	}
	companyID, ok := queryID(c, "company_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageLimit)))

	filter := services.InterventionFilter{
		Status:       c.Query("status"),
		TechnicianID: technicianID,
		CompanyID:    companyID,
		Search:       c.Query("search"),
	}

	interventions, pagination, err := interventionService().List(c.Request.Context(), identity, filter, services.Page{Page: page, Limit: limit})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       interventions,
		"pagination": pagination,
	})
}

// GetIntervention handles GET /api/v1/interventions/:id
func GetIntervention(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	intervention, err := interventionService().Get(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, intervention)
}

// UpdateIntervention handles PUT /api/v1/interventions/:id
func UpdateIntervention(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.UpdateInterventionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	intervention, err := interventionService().Update(c.Request.Context(), identity, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, intervention)
}

// UpdateInterventionStatus handles PUT /api/v1/interventions/:id/status
func UpdateInterventionStatus(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	intervention, err := interventionService().UpdateStatus(c.Request.Context(), identity, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, intervention)
}

// SetInterventionGPS handles PUT /api/v1/interventions/:id/gps
func SetInterventionGPS(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req GPSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	intervention, err := interventionService().SetGPS(c.Request.Context(), identity, id, req.Latitude, req.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, intervention)
}

// SetInterventionAppointment handles POST /api/v1/interventions/:id/appointment
func SetInterventionAppointment(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	intervention, err := interventionService().SetAppointment(c.Request.Context(), identity, id, req.ScheduledDate, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, intervention)
}

// DeleteIntervention handles DELETE /api/v1/interventions/:id
func DeleteIntervention(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := interventionService().Delete(c.Request.Context(), identity, id); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
