package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tilelens/backend/internal/domain"
	"github.com/tilelens/backend/internal/usecase"
)

// multipartOverhead is allowed on top of the image size for form boundaries and fields
const multipartOverhead = 1 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searchService *usecase.SearchService
}

// NewHandler creates a new HTTP handler. A nil service makes search endpoints return 501.
func NewHandler(searchService *usecase.SearchService) *Handler {
	return &Handler{searchService: searchService}
}

// TextSearchRequest is the body of POST /api/v1/search/text
type TextSearchRequest struct {
	Description string `json:"description"`
	SessionID   string `json:"session_id"`
}

// ProjectRequest is the body of POST /api/v1/results/project
type ProjectRequest struct {
	Results   []domain.ProductMatch  `json:"results"`
	Filters   domain.FilterSelection `json:"filters"`
	SortOrder string                 `json:"sortOrder"`
	Page      int                    `json:"page"`
	PageSize  int                    `json:"pageSize"`
}

// SearchResponse is returned by both search endpoints
type SearchResponse struct {
	SessionID string                `json:"sessionId"`
	Kind      domain.QueryKind      `json:"kind"`
	Query     string                `json:"query"`
	Page      *domain.ProjectedPage `json:"page"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tilelens-backend",
		"version": "1.0.0",
	})
}

// SearchImage handles multipart image uploads
func (h *Handler) SearchImage(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	maxBytes := h.searchService.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, domain.ErrImageTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded image"})
		return
	}
	defer file.Close()

	// One byte over the limit is enough for the validator to reject it
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded image"})
		return
	}

	upload := &domain.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}

	session, err := h.searchService.SearchImage(c.Request.Context(), c.PostForm("session_id"), upload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, session)
}

// SearchText handles description searches
func (h *Handler) SearchText(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req TextSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	session, err := h.searchService.SearchText(c.Request.Context(), req.SessionID, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, session)
}

// GetResults projects a stored session's results
func (h *Handler) GetResults(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	query, err := parseProjectionQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	page, err := h.searchService.ProjectSession(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetFacets lists filter values available in a session
func (h *Handler) GetFacets(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	facets, err := h.searchService.SessionFacets(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facets": facets})
}

// ProjectResults projects a result list supplied in the request body
func (h *Handler) ProjectResults(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	sortOrder, err := domain.ParseSortOrder(req.SortOrder)
	if err != nil {
		h.respondError(c, err)
		return
	}

	page, err := h.searchService.ProjectResults(req.Results, domain.ProjectionQuery{
		Filters:   req.Filters,
		SortOrder: sortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) configured(c *gin.Context) bool {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Search service not configured",
		})
		return false
	}
	return true
}

func (h *Handler) respondSession(c *gin.Context, session *domain.SearchSession) {
	page, err := h.searchService.ProjectResults(session.Results, domain.ProjectionQuery{Page: 1})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SearchResponse{
		SessionID: session.ID,
		Kind:      session.Kind,
		Query:     session.Query,
		Page:      page,
	})
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var backendErr *domain.BackendError

	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnsupportedImage),
		errors.Is(err, domain.ErrImageTooLarge),
		errors.Is(err, domain.ErrImageTooSmall):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Search session not found or expired"})

	case usecase.IsSuperseded(err):
		c.JSON(http.StatusConflict, gin.H{"error": "Search superseded by a newer request"})

	case errors.As(err, &backendErr):
		message := backendErr.Message
		if message == "" {
			message = "Search backend temporarily unavailable"
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": message})

	case errors.Is(err, domain.ErrBackendFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search backend temporarily unavailable"})

	default:
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseProjectionQuery reads page, page_size, sort and repeated filter=category:value parameters
func parseProjectionQuery(c *gin.Context) (domain.ProjectionQuery, error) {
	var query domain.ProjectionQuery

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return query, fmt.Errorf("%w: page must be an integer", domain.ErrInvalidRequest)
		}
		query.Page = page
	}

	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return query, fmt.Errorf("%w: page_size must be an integer", domain.ErrInvalidRequest)
		}
		if size <= 0 {
			return query, fmt.Errorf("%w: page size must be positive, got %d", domain.ErrInvalidArgument, size)
		}
		query.PageSize = size
	}

	sortOrder, err := domain.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return query, err
	}
	query.SortOrder = sortOrder

	filters := domain.FilterSelection{}
	for _, raw := range c.QueryArray("filter") {
		category, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(category) == "" {
			return query, fmt.Errorf("%w: filter %q must be category:value", domain.ErrInvalidRequest, raw)
		}
		filters[category] = append(filters[category], value)
	}
	if len(filters) > 0 {
		query.Filters = filters
	}

	return query, nil
}
