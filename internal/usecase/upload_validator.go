package usecase

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tilelens/backend/internal/domain"
)

// Upload limits matching the search backend's own checks
const (
	defaultMaxUploadBytes = 5 * 1024 * 1024
	defaultMinDimension   = 50
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

var allowedMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// UploadValidatorConfig holds limits for uploaded images
type UploadValidatorConfig struct {
	MaxBytes     int64
	MinDimension int
}

// UploadValidator rejects uploads the search backend would refuse before they leave the shell
type UploadValidator struct {
	maxBytes     int64
	minDimension int
}

// NewUploadValidator creates a validator, falling back to 5 MiB and 50px
func NewUploadValidator(config UploadValidatorConfig) *UploadValidator {
	maxBytes := config.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	minDim := config.MinDimension
	if minDim <= 0 {
		minDim = defaultMinDimension
	}
	return &UploadValidator{maxBytes: maxBytes, minDimension: minDim}
}

// MaxBytes returns the upload size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate checks extension, size, sniffed content type and pixel dimensions.
// On success ContentType is set to the sniffed MIME type.
func (v *UploadValidator) Validate(upload *domain.ImageUpload) error {
	if upload == nil || upload.Filename == "" || len(upload.Data) == 0 {
		return fmt.Errorf("%w: no image provided", domain.ErrInvalidRequest)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Filename)), ".")
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedImage, upload.Filename)
	}

	if int64(len(upload.Data)) > v.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrImageTooLarge, len(upload.Data), v.maxBytes)
	}

	detected := mimetype.Detect(upload.Data)
	if !allowedMIMETypes[detected.String()] {
		return fmt.Errorf("%w: content is %s", domain.ErrUnsupportedImage, detected.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil {
		return fmt.Errorf("%w: cannot decode image: %v", domain.ErrUnsupportedImage, err)
	}
	if cfg.Width < v.minDimension || cfg.Height < v.minDimension {
		return fmt.Errorf("%w: %dx%d, need at least %dx%d",
			domain.ErrImageTooSmall, cfg.Width, cfg.Height, v.minDimension, v.minDimension)
	}

	upload.ContentType = detected.String()
	return nil
}
