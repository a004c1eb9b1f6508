package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gbd-solar/solartech-api/utils"
	"gorm.io/gorm"
)

// CreatePhotoInput attaches a photo given inline (base64) or as an external URL.
type CreatePhotoInput struct {
	InterventionID models.OptionalID `json:"intervention_id"`
	PhotoData      *string           `json:"photo_data"`
	PhotoURL       *string           `json:"photo_url"`
	MimeType       string            `json:"mime_type"`
	Description    *string           `json:"description"`
}

// PhotoContent is the payload of a photo: either bytes or a URL to redirect to.
type PhotoContent struct {
	Body        io.ReadCloser
	MimeType    string
	RedirectURL string
}

// PhotoService manages intervention photos.
type PhotoService struct {
	db      *gorm.DB
	storage PhotoStorage
}

// NewPhotoService creates a PhotoService. storage may be nil when uploads are disabled.
func NewPhotoService(db *gorm.DB, storage PhotoStorage) *PhotoService {
	return &PhotoService{db: db, storage: storage}
}

// ListForIntervention returns the photos of a visible intervention, oldest first.
func (s *PhotoService) ListForIntervention(ctx context.Context, identity policy.Identity, interventionID uint) ([]models.Photo, error) {
	if _, err := s.visibleIntervention(ctx, identity, interventionID); err != nil {
		return nil, err
	}

	var photos []models.Photo
	err := s.db.WithContext(ctx).
		Where("intervention_id = ?", interventionID).
		Order("created_at ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, internal("failed to list photos", err)
	}

	for i := range photos {
		resolvePhotoURL(ctx, s.storage, &photos[i])
	}
	return photos, nil
}

// Get returns a photo whose intervention is visible to the caller.
func (s *PhotoService) Get(ctx context.Context, identity policy.Identity, id uint) (*models.Photo, error) {
	photo, err := s.visiblePhoto(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	resolvePhotoURL(ctx, s.storage, photo)
	return photo, nil
}

// Content returns the photo bytes, or the URL where they live.
func (s *PhotoService) Content(ctx context.Context, identity policy.Identity, id uint) (*PhotoContent, error) {
	photo, err := s.visiblePhoto(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	switch {
	case photo.PhotoData != nil:
		data, err := decodePhotoData(*photo.PhotoData)
		if err != nil {
			return nil, internal("stored photo is corrupt", err)
		}
		return &PhotoContent{Body: io.NopCloser(bytes.NewReader(data)), MimeType: photo.MimeType}, nil
	case photo.StorageKey != nil:
		if s.storage == nil {
			return nil, internal("photo storage is not configured", nil)
		}
		body, err := s.storage.Open(ctx, *photo.StorageKey)
		if err != nil {
			return nil, internal("failed to read photo", err)
		}
		return &PhotoContent{Body: body, MimeType: photo.MimeType}, nil
	case photo.PhotoURL != nil:
		return &PhotoContent{RedirectURL: *photo.PhotoURL, MimeType: photo.MimeType}, nil
	}
	return nil, notFound("photo content")
}

// Create attaches an inline or external photo to an intervention the caller may modify.
func (s *PhotoService) Create(ctx context.Context, identity policy.Identity, input CreatePhotoInput) (*models.Photo, error) {
	if input.InterventionID.Value == nil {
		return nil, invalidInput("VALIDATION_ERROR", "intervention_id is required")
	}
	hasData := input.PhotoData != nil && strings.TrimSpace(*input.PhotoData) != ""
	hasURL := input.PhotoURL != nil && strings.TrimSpace(*input.PhotoURL) != ""
	if hasData == hasURL {
		return nil, invalidInput("VALIDATION_ERROR", "exactly one of photo_data or photo_url is required")
	}

	intervention, err := s.mutableIntervention(ctx, identity, *input.InterventionID.Value)
	if err != nil {
		return nil, err
	}

	uploader := identity.UserID
	photo := models.Photo{
		InterventionID: intervention.ID,
		MimeType:       defaultString(input.MimeType, "image/jpeg"),
		Description:    input.Description,
		UploadedByID:   &uploader,
	}

	if hasData {
		raw := stripDataURL(*input.PhotoData)
		data, err := decodePhotoData(raw)
		if err != nil {
			return nil, invalidInput("INVALID_PHOTO_DATA", "photo_data is not valid base64")
		}
		if len(data) > utils.MaxFileSize {
			return nil, invalidInput("FILE_TOO_LARGE", fmt.Sprintf("Photo exceeds maximum allowed size of %d MB", utils.MaxFileSize/(1024*1024)))
		}
		photo.PhotoData = &raw
	} else {
		url := strings.TrimSpace(*input.PhotoURL)
		if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
			return nil, invalidInput("INVALID_PHOTO_URL", "photo_url must be an http(s) URL")
		}
		photo.PhotoURL = &url
	}

	if err := s.db.WithContext(ctx).Create(&photo).Error; err != nil {
		return nil, internal("failed to save photo", err)
	}

	slog.InfoContext(ctx, "photo attached", "photo_id", photo.ID, "intervention_id", intervention.ID, "user_id", identity.UserID)
	resolvePhotoURL(ctx, s.storage, &photo)
	return &photo, nil
}

// Upload stores a multipart file and attaches it to an intervention the caller may modify.
func (s *PhotoService) Upload(ctx context.Context, identity policy.Identity, interventionID uint, fileHeader *multipart.FileHeader, description *string) (*models.Photo, error) {
	if s.storage == nil {
		return nil, internal("photo storage is not configured", nil)
	}

	intervention, err := s.mutableIntervention(ctx, identity, interventionID)
	if err != nil {
		return nil, err
	}

	key, mimeType, err := s.storage.Save(ctx, intervention.ID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			return nil, invalidInput(uploadErr.Code, uploadErr.Message)
		}
		return nil, internal("failed to store photo", err)
	}

	uploader := identity.UserID
	photo := models.Photo{
		InterventionID: intervention.ID,
		StorageKey:     &key,
		MimeType:       mimeType,
		Description:    description,
		UploadedByID:   &uploader,
	}
	if err := s.db.WithContext(ctx).Create(&photo).Error; err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove orphaned photo", "key", key, "error", delErr)
		}
		return nil, internal("failed to save photo", err)
	}

	slog.InfoContext(ctx, "photo uploaded", "photo_id", photo.ID, "intervention_id", intervention.ID, "user_id", identity.UserID)
	resolvePhotoURL(ctx, s.storage, &photo)
	return &photo, nil
}

// Delete removes a photo. Allowed for MASTER, the owning company's DITTA and the uploader.
func (s *PhotoService) Delete(ctx context.Context, identity policy.Identity, id uint) error {
	var photo models.Photo
	if err := s.db.WithContext(ctx).First(&photo, id).Error; err != nil {
		return lookupError("photo", err)
	}

	var intervention models.Intervention
	if err := s.db.WithContext(ctx).First(&intervention, photo.InterventionID).Error; err != nil {
		return lookupError("intervention", err)
	}

	if err := policy.AuthorizePhotoDelete(identity, &photo, &intervention); err != nil {
		return denied(err)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Photo{}, photo.ID).Error; err != nil {
		return internal("failed to delete photo", err)
	}

	if photo.StorageKey != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, *photo.StorageKey); err != nil {
			slog.ErrorContext(ctx, "failed to delete stored photo", "key", *photo.StorageKey, "error", err)
		}
	}

	slog.InfoContext(ctx, "photo deleted", "photo_id", photo.ID, "user_id", identity.UserID)
	return nil
}

func (s *PhotoService) visibleIntervention(ctx context.Context, identity policy.Identity, id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(identity, policy.KindIntervention)).
		First(&intervention, id).Error
	if err != nil {
		return nil, lookupError("intervention", err)
	}
	return &intervention, nil
}

func (s *PhotoService) mutableIntervention(ctx context.Context, identity policy.Identity, id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	if err := s.db.WithContext(ctx).First(&intervention, id).Error; err != nil {
		return nil, lookupError("intervention", err)
	}
	if err := policy.AuthorizeInterventionMutation(identity, &intervention); err != nil {
		return nil, denied(err)
	}
	return &intervention, nil
}

func (s *PhotoService) visiblePhoto(ctx context.Context, identity policy.Identity, id uint) (*models.Photo, error) {
	var photo models.Photo
	if err := s.db.WithContext(ctx).First(&photo, id).Error; err != nil {
		return nil, lookupError("photo", err)
	}
	if _, err := s.visibleIntervention(ctx, identity, photo.InterventionID); err != nil {
		if KindOf(err) == KindNotFound {
			return nil, notFound("photo")
		}
		return nil, err
	}
	return &photo, nil
}

// resolvePhotoURL fills the computed URL: the external URL, a storage URL,
// or the API content route.
func resolvePhotoURL(ctx context.Context, storage PhotoStorage, photo *models.Photo) {
	switch {
	case photo.PhotoURL != nil:
		photo.URL = *photo.PhotoURL
		return
	case photo.StorageKey != nil && storage != nil:
		url, err := storage.URL(ctx, *photo.StorageKey)
		if err != nil {
			slog.WarnContext(ctx, "failed to resolve photo URL", "photo_id", photo.ID, "error", err)
		}
		if url != "" {
			photo.URL = url
			return
		}
	}
	photo.URL = fmt.Sprintf("/api/v1/photos/%d/content", photo.ID)
}

// stripDataURL removes a data:<mime>;base64, prefix.
func stripDataURL(data string) string {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			return data[i+1:]
		}
	}
	return data
}

func decodePhotoData(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(stripDataURL(data))
}
