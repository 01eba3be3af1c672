package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"neurowave-gateway/internal/models"
)

const (
	msgNoFile          = "No file provided"
	msgInvalidFileType = "Invalid file type. Please upload JPEG, PNG, or DICOM files."
	// multipart framing allowance on top of the file limit
	formOverhead = 1 << 20
)

var allowedTypes = map[string]bool{
	"image/jpeg":        true,
	"image/jpg":         true,
	"image/png":         true,
	"application/dicom": true,
}

// UploadValidator reads the multipart "file" field and enforces type and size limits
type UploadValidator struct {
	maxBytes int64
	maxMB    int64
}

// NewUploadValidator creates a validator allowing files up to maxMB megabytes
func NewUploadValidator(maxMB int64) *UploadValidator {
	return &UploadValidator{
		maxBytes: maxMB * 1024 * 1024,
		maxMB:    maxMB,
	}
}

func (v *UploadValidator) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", v.maxMB)
}

// Read returns the uploaded file, or a client-facing message when it is rejected
func (v *UploadValidator) Read(c *gin.Context) (models.ImageFile, string) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, v.maxBytes+formOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return models.ImageFile{}, v.tooLargeMessage()
		}
		return models.ImageFile{}, msgNoFile
	}

	src, err := header.Open()
	if err != nil {
		return models.ImageFile{}, msgNoFile
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, v.maxBytes+1))
	if err != nil {
		return models.ImageFile{}, msgNoFile
	}

	contentType := mediaType(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(mimetype.Detect(data).String())
	}
	if !allowedTypes[contentType] {
		return models.ImageFile{}, msgInvalidFileType
	}

	if header.Size > v.maxBytes || int64(len(data)) > v.maxBytes {
		return models.ImageFile{}, v.tooLargeMessage()
	}

	return models.ImageFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, ""
}

func mediaType(value string) string {
	value, _, _ = strings.Cut(value, ";")
	return strings.ToLower(strings.TrimSpace(value))
}
