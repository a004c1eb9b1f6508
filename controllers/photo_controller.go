package controllers

import (
	"net/http"
	"strconv"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gbd-solar/solartech-api/utils"
	"github.com/gin-gonic/gin"
)

func photoService() *services.PhotoService {
	return services.NewPhotoService(config.GetDB(), services.GetPhotoStorage())
}

// ListInterventionPhotos handles GET /api/v1/photos/intervention/:interventionId
func ListInterventionPhotos(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	interventionID, ok := pathID(c, "interventionId")
	if !ok {
		return
	}

	photos, err := photoService().ListForIntervention(c.Request.Context(), identity, interventionID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, photos)
}

// GetPhoto handles GET /api/v1/photos/:id
func GetPhoto(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	photo, err := photoService().Get(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, photo)
}

// GetPhotoContent handles GET /api/v1/photos/:id/content - streams the image
// or redirects to its external location
func GetPhotoContent(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	content, err := photoService().Content(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if content.RedirectURL != "" {
		c.Redirect(http.StatusFound, content.RedirectURL)
		return
	}
	defer content.Body.Close()

	c.Header("Cache-Control", "private, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, content.MimeType, content.Body, nil)
}

// CreatePhoto handles POST /api/v1/photos with a base64 payload or an external URL
func CreatePhoto(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input services.CreatePhotoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	photo, err := photoService().Create(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, photo)
}

// UploadPhoto handles POST /api/v1/photos/upload (multipart: intervention_id, photo, description)
func UploadPhoto(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	interventionID, err := strconv.ParseUint(c.PostForm("intervention_id"), 10, 64)
	if err != nil || interventionID == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid intervention_id")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "MISSING_FILE", "A photo file is required")
		return
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			respondFailure(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondBindingError(c, err)
		return
	}

	var description *string
	if value, ok := c.GetPostForm("description"); ok && value != "" {
		description = &value
	}

	photo, err := photoService().Upload(c.Request.Context(), identity, uint(interventionID), fileHeader, description)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, photo)
}

// DeletePhoto handles DELETE /api/v1/photos/:id
func DeletePhoto(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := photoService().Delete(c.Request.Context(), identity, id); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
