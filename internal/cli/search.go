package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tilelens/backend/config"
	"github.com/tilelens/backend/internal/domain"
	"github.com/tilelens/backend/internal/infrastructure/backend"
	"github.com/tilelens/backend/internal/infrastructure/cache"
	"github.com/tilelens/backend/internal/infrastructure/catalog"
	"github.com/tilelens/backend/internal/usecase"
)

var (
	searchText     string
	searchImage    string
	searchFilters  []string
	searchSort     string
	searchPage     int
	searchPageSize int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search products by image or description",
	Long: `Run a single visual or text search and print one page of results.

Examples:
  tilelens search --text "rustic wood effect"
  tilelens search --image sample.png --filter tile_type=floor --filter color=beige
  tilelens search -t "grey slate" --sort score-asc --page 2 --page-size 5`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "text", "t", "", "description to search for")
	searchCmd.Flags().StringVarP(&searchImage, "image", "i", "", "path to a PNG or JPEG image")
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil, "filter as category=value (repeatable)")
	searchCmd.Flags().StringVarP(&searchSort, "sort", "s", "none", "none, score-desc (high-to-low) or score-asc (low-to-high)")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "page number")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "results per page (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagsMutuallyExclusive("text", "image")
	searchCmd.MarkFlagsOneRequired("text", "image")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filters, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}
	sortOrder, err := domain.ParseSortOrder(searchSort)
	if err != nil {
		return err
	}

	svc, cleanup, err := newSearchService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var session *domain.SearchSession
	if searchImage != "" {
		data, err := os.ReadFile(searchImage)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		session, err = svc.SearchImage(ctx, "", &domain.ImageUpload{
			Filename: filepath.Base(searchImage),
			Data:     data,
		})
		if err != nil {
			return fmt.Errorf("image search failed: %w", err)
		}
	} else {
		session, err = svc.SearchText(ctx, "", searchText)
		if err != nil {
			return fmt.Errorf("text search failed: %w", err)
		}
	}

	page, err := svc.ProjectResults(session.Results, domain.ProjectionQuery{
		Filters:   filters,
		SortOrder: sortOrder,
		Page:      searchPage,
		PageSize:  searchPageSize,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	printPage(out, session, page)
	return nil
}

// parseFilters turns category=value flags into a selection; repeated categories accumulate values
func parseFilters(raw []string) (domain.FilterSelection, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := domain.FilterSelection{}
	for _, f := range raw {
		category, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(category) == "" {
			return nil, fmt.Errorf("invalid filter %q, expected category=value", f)
		}
		filters[category] = append(filters[category], value)
	}
	return filters, nil
}

// newSearchService wires a service with an in-memory session store
func newSearchService(ctx context.Context, cfg *config.Config) (*usecase.SearchService, func(), error) {
	client := backend.NewClient(backend.ClientConfig{
		BaseURL:       cfg.Backend.BaseURL,
		ImageHost:     cfg.Backend.ImageHost,
		Timeout:       cfg.Backend.Timeout,
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
	})

	cat, err := catalog.FromConfig(ctx, cfg.Catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	var productCatalog domain.ProductCatalog
	if cat != nil {
		productCatalog = cat
	}

	memCache := cache.NewMemoryCache()
	svc := usecase.NewSearchService(
		client,
		productCatalog,
		usecase.NewSessionStore(memCache, cfg.Cache.TTL),
		usecase.NewUploadValidator(usecase.UploadValidatorConfig{
			MaxBytes:     cfg.Upload.MaxBytes,
			MinDimension: cfg.Upload.MinDimension,
		}),
		usecase.SearchServiceConfig{
			DefaultPageSize: cfg.Results.PageSize,
			MaxPageSize:     cfg.Results.MaxPageSize,
		},
	)
	return svc, func() { memCache.Close() }, nil
}
