package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilelens/backend/internal/infrastructure/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Load the product catalog and report its size",
	Long: `Load the product catalog configured under catalog.source and print how many
image filenames it maps. Useful for checking a catalog file or S3 object
before starting the server.`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cat, err := catalog.FromConfig(ctx, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	if cat == nil {
		return fmt.Errorf("no catalog configured (set catalog.source to file or s3)")
	}

	if err := cat.Refresh(ctx, true); err != nil {
		return err
	}

	headerColor.Fprintf(cmd.OutOrStdout(), "Catalog %s: %d image mappings\n", cfg.Catalog.Source, cat.Size())
	return nil
}
