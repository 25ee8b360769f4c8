package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tilelens/backend/internal/domain"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of a backend response body is read
const maxResponseBytes = 10 * 1024 * 1024

// ClientConfig holds settings for the search backend client
type ClientConfig struct {
	BaseURL       string
	ImageHost     string // Prefix for relative result URLs; defaults to BaseURL
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Client handles communication with the image/text search backend.
// Each search is a single attempt; failures are returned to the caller.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	imageHost   string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new search backend client
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second // Inference on CPU can take a while
	}
	limit := rate.Limit(config.RatePerSecond)
	if config.RatePerSecond <= 0 {
		limit = rate.Limit(5)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 10
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	imageHost := strings.TrimRight(config.ImageHost, "/")
	if imageHost == "" {
		imageHost = baseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		imageHost:   imageHost,
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

// SetDebug enables or disables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SearchByImage posts the image as multipart field "image" to /upload
func (c *Client) SearchByImage(ctx context.Context, upload *domain.ImageUpload) ([]domain.ProductMatch, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: no image provided", domain.ErrInvalidRequest)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, upload.Filename))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	if c.debug {
		log.Printf("[BACKEND] SearchByImage: %q (%d bytes)", upload.Filename, len(upload.Data))
	}
	return c.post(ctx, "/upload", writer.FormDataContentType(), body)
}

// SearchByText posts {"description": ...} to /search
func (c *Client) SearchByText(ctx context.Context, description string) ([]domain.ProductMatch, error) {
	payload, err := json.Marshal(map[string]string{"description": description})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if c.debug {
		log.Printf("[BACKEND] SearchByText: %q", description)
	}
	return c.post(ctx, "/search", "application/json", bytes.NewReader(payload))
}

// post executes one request and decodes the {results} / {error} envelope
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]domain.ProductMatch, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TileLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrBackendFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		backendErr := &domain.BackendError{StatusCode: resp.StatusCode}
		var envelope domain.SearchResponse
		if json.Unmarshal(data, &envelope) == nil {
			backendErr.Message = envelope.Error
		}
		log.Printf("[BACKEND] %s returned %d: %s", path, resp.StatusCode, backendErr.Message)
		return nil, backendErr
	}

	var envelope domain.SearchResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrBackendFailure, err)
	}

	results := MapResults(envelope.Results, c.imageHost)
	if c.debug {
		log.Printf("[BACKEND] %s returned %d results", path, len(results))
	}
	return results, nil
}
