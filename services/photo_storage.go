package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gbd-solar/solartech-api/utils"
	"github.com/google/uuid"
)

// PhotoStorage keeps uploaded photo files outside the database.
type PhotoStorage interface {
	// Save validates and stores an upload for an intervention, returning its key and mime type.
	Save(ctx context.Context, interventionID uint, fileHeader *multipart.FileHeader) (key, mimeType string, err error)

	// URL returns a direct URL for key, or "" when content must be served by the API.
	URL(ctx context.Context, key string) (string, error)

	// Open returns the stored bytes for key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key; missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

var photoStorageInstance PhotoStorage

// GetPhotoStorage returns the configured photo storage
func GetPhotoStorage() PhotoStorage {
	return photoStorageInstance
}

// SetPhotoStorage sets the photo storage (primarily for testing)
func SetPhotoStorage(storage PhotoStorage) {
	photoStorageInstance = storage
}

// photoKey names an upload as <interventionID>_<uuid><ext>.
func photoKey(interventionID uint, filename string) string {
	return fmt.Sprintf("%d_%s%s", interventionID, uuid.NewString(), filepath.Ext(filename))
}

// S3PhotoStorage stores photos in an S3 bucket under the photos/ prefix.
type S3PhotoStorage struct {
	s3 S3Interface
}

// NewS3PhotoStorage creates photo storage backed by s3.
func NewS3PhotoStorage(s3 S3Interface) *S3PhotoStorage {
	return &S3PhotoStorage{s3: s3}
}

func (s *S3PhotoStorage) Save(ctx context.Context, interventionID uint, fileHeader *multipart.FileHeader) (string, string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", "", err
	}
	mimeType, _ := utils.MimeTypeForFile(fileHeader.Filename)

	key := "photos/" + photoKey(interventionID, fileHeader.Filename)
	if err := s.s3.UploadFile(ctx, key, mimeType, fileHeader); err != nil {
		return "", "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return key, mimeType, nil
}

func (s *S3PhotoStorage) URL(ctx context.Context, key string) (string, error) {
	url, err := s.s3.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate photo URL: %w", err)
	}
	return url, nil
}

func (s *S3PhotoStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.s3.DownloadFile(ctx, key)
}

func (s *S3PhotoStorage) Delete(ctx context.Context, key string) error {
	if err := s.s3.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// LocalPhotoStorage stores photos in a directory on local disk.
type LocalPhotoStorage struct {
	dir string
}

// NewLocalPhotoStorage creates photo storage rooted at dir.
func NewLocalPhotoStorage(dir string) *LocalPhotoStorage {
	return &LocalPhotoStorage{dir: dir}
}

func (l *LocalPhotoStorage) Save(ctx context.Context, interventionID uint, fileHeader *multipart.FileHeader) (string, string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", "", err
	}
	mimeType, _ := utils.MimeTypeForFile(fileHeader.Filename)

	key := photoKey(interventionID, fileHeader.Filename)
	if err := utils.SaveUploadedFile(fileHeader, l.dir, key); err != nil {
		return "", "", err
	}
	return key, mimeType, nil
}

// URL is always empty: local files are served through the API.
func (l *LocalPhotoStorage) URL(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (l *LocalPhotoStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := utils.ResolveUploadPath(l.dir, key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (l *LocalPhotoStorage) Delete(ctx context.Context, key string) error {
	path, err := utils.ResolveUploadPath(l.dir, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
