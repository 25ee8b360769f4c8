package http

import (
	"github.com/gin-gonic/gin"
	"github.com/tilelens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		search := v1.Group("/search")
		{
			search.POST("/image", handler.SearchImage)
			search.POST("/text", handler.SearchText)
		}

		sessions := v1.Group("/sessions/:id")
		{
			sessions.GET("/results", handler.GetResults)
			sessions.GET("/facets", handler.GetFacets)
		}

		v1.POST("/results/project", handler.ProjectResults)
	}

	return router
}
