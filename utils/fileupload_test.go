package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFileHeader creates a mock multipart.FileHeader for testing
func createTestFileHeader(filename string, size int64, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)

	if len(form.File["photo"]) > 0 {
		fileHeader := form.File["photo"][0]
		// Override size for testing purposes
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidateImageFile_AcceptedFormats(t *testing.T) {
	for _, name := range []string{"roof.jpg", "roof.jpeg", "inverter.png", "panel.webp", "PANEL.JPG"} {
		t.Run(name, func(t *testing.T) {
			content := []byte("fake image content")
			fileHeader := createTestFileHeader(name, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			assert.NoError(t, ValidateImageFile(fileHeader))
		})
	}
}

func TestValidateImageFile_FileTooLarge(t *testing.T) {
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("large.png", 11*1024*1024, content)
	require.NotNil(t, fileHeader)

	err := ValidateImageFile(fileHeader)
	assert.Error(t, err)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
	assert.Contains(t, fileErr.Message, "File size exceeds maximum allowed size")
}

func TestValidateImageFile_InvalidFormat(t *testing.T) {
	for _, name := range []string{"report.pdf", "animation.gif", "noextension"} {
		t.Run(name, func(t *testing.T) {
			content := []byte("fake content")
			fileHeader := createTestFileHeader(name, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			err := ValidateImageFile(fileHeader)
			fileErr, ok := err.(*FileUploadError)
			require.True(t, ok, "Error should be of type FileUploadError")
			assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)
		})
	}
}

func TestMimeTypeForFile(t *testing.T) {
	mimeType, ok := MimeTypeForFile("photo.JPEG")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", mimeType)

	mimeType, ok = MimeTypeForFile("photo.png")
	assert.True(t, ok)
	assert.Equal(t, "image/png", mimeType)

	_, ok = MimeTypeForFile("photo.bmp")
	assert.False(t, ok)
}

func TestSaveUploadedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	content := []byte("jpeg bytes")
	fileHeader := createTestFileHeader("site.jpg", int64(len(content)), content)
	require.NotNil(t, fileHeader)

	require.NoError(t, SaveUploadedFile(fileHeader, dir, "7_abc.jpg"))

	saved, err := os.ReadFile(filepath.Join(dir, "7_abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestResolveUploadPath_RejectsTraversal(t *testing.T) {
	for _, name := range []string{"", "../etc/passwd", "a/b.jpg", `a\b.jpg`, ".."} {
		_, err := ResolveUploadPath("/var/uploads", name)
		assert.Error(t, err, "filename %q", name)
	}

	path, err := ResolveUploadPath("/var/uploads", "7_abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/uploads", "7_abc.jpg"), path)
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{
		Code:    "TEST_CODE",
		Message: "Test error message",
	}

	assert.Equal(t, "Test error message", err.Error())
}
