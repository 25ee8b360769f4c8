package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a projection is requested with a non-positive page size
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSessionNotFound is returned when a search session does not exist or has expired
	ErrSessionNotFound = errors.New("search session not found")

	// ErrSuperseded is returned when a newer search in the same session replaced this one
	ErrSuperseded = errors.New("search superseded by a newer request")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrBackendFailure is returned when the search backend request fails
	ErrBackendFailure = errors.New("search backend request failed")

	// ErrUnsupportedImage is returned when an upload is not a PNG or JPEG image
	ErrUnsupportedImage = errors.New("file type not allowed")

	// ErrImageTooLarge is returned when an upload exceeds the configured size limit
	ErrImageTooLarge = errors.New("image exceeds maximum upload size")

	// ErrImageTooSmall is returned when an uploaded image is below the minimum dimensions
	ErrImageTooSmall = errors.New("image is too small")

	// ErrCatalogUnavailable is returned when the product catalog cannot be loaded
	ErrCatalogUnavailable = errors.New("product catalog unavailable")
)

// BackendError carries the status code and message the search backend returned.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrBackendFailure, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrBackendFailure, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrBackendFailure
func (e *BackendError) Unwrap() error {
	return ErrBackendFailure
}
