package controllers

import (
	"net/http"
	"time"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

// LocationRequest is the payload for POST /locations/update
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

func locationService() *services.LocationService {
	return services.NewLocationService(config.GetDB())
}

// ReportLocation handles POST /api/v1/locations/update - TECNICO only
func ReportLocation(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	location, err := locationService().ReportLocation(c.Request.Context(), identity, req.Latitude, req.Longitude, req.Accuracy)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, location)
}

// ListTechnicianLocations handles GET /api/v1/locations/technicians
func ListTechnicianLocations(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	roster, err := locationService().ListTechnicianLocations(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, roster)
}

// PruneStaleLocations handles DELETE /api/v1/locations/stale
// older_than overrides the configured retention (Go duration, e.g. 48h).
func PruneStaleLocations(retention time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := currentIdentity(c)
		if !ok {
			return
		}

		maxAge := retention
		if raw := c.Query("older_than"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "older_than must be a duration such as 48h")
				return
			}
			maxAge = parsed
		}

		removed, err := locationService().PruneStale(c.Request.Context(), identity, maxAge)
		if err != nil {
			respondError(c, err)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"removed": removed, "older_than": maxAge.String()})
	}
}
