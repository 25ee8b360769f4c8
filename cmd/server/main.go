package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tilelens/backend/config"
	httpDelivery "github.com/tilelens/backend/internal/delivery/http"
	"github.com/tilelens/backend/internal/domain"
	"github.com/tilelens/backend/internal/infrastructure/backend"
	"github.com/tilelens/backend/internal/infrastructure/cache"
	"github.com/tilelens/backend/internal/infrastructure/catalog"
	"github.com/tilelens/backend/internal/usecase"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting TileLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	// Initialize infrastructure dependencies
	sessionCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize %s cache: %v", cfg.Cache.Type, err)
	}
	defer sessionCache.Close()
	log.Printf("Session TTL: %s", cfg.Cache.TTL)

	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL:       cfg.Backend.BaseURL,
		ImageHost:     cfg.Backend.ImageHost,
		Timeout:       cfg.Backend.Timeout,
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
	})

	// Enable debug mode in development environment
	debug := cfg.Server.Environment == "development"
	if debug {
		backendClient.SetDebug(true)
		log.Printf("Backend client debug mode enabled")
	}
	log.Printf("Search backend: %s (timeout %s)", cfg.Backend.BaseURL, cfg.Backend.Timeout)

	var productCatalog domain.ProductCatalog
	cat, err := catalog.FromConfig(ctx, cfg.Catalog)
	if err != nil {
		log.Fatalf("Failed to initialize catalog: %v", err)
	}
	if cat != nil {
		// A catalog that fails to load now is retried on the next lookup
		if err := cat.Refresh(ctx, true); err != nil {
			log.Printf("WARNING: %v", err)
		}
		productCatalog = cat
		log.Printf("Catalog: %s, %d image mappings, refresh every %s", cfg.Catalog.Source, cat.Size(), cfg.Catalog.RefreshInterval)
	} else {
		log.Printf("Catalog: disabled")
	}

	// Initialize usecase layer
	searchService := usecase.NewSearchService(
		backendClient,
		productCatalog,
		usecase.NewSessionStore(sessionCache, cfg.Cache.TTL),
		usecase.NewUploadValidator(usecase.UploadValidatorConfig{
			MaxBytes:     cfg.Upload.MaxBytes,
			MinDimension: cfg.Upload.MinDimension,
		}),
		usecase.SearchServiceConfig{
			DefaultPageSize:    cfg.Results.PageSize,
			MaxPageSize:        cfg.Results.MaxPageSize,
			EnableDebugLogging: debug,
		},
	)

	log.Printf("Results: page size %d (max %d), rate limit %d/min per IP",
		cfg.Results.PageSize,
		cfg.Results.MaxPageSize,
		cfg.RateLimit.PerIP)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
