package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tilelens/backend/config"
)

var (
	cfg        *config.Config
	backendURL string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "tilelens",
	Short: "TileLens - visual and text search over the tile catalog",
	Long: `TileLens sends an image or a description to the search backend and prints
the matching products, filtered, sorted and paginated the same way the web
front end shows them.

Example usage:
  tilelens search --text "white glossy marble"
  tilelens search --image floor.jpg --filter color=grey --sort high-to-low
  tilelens catalog`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendURL != "" {
			cfg.Backend.BaseURL = backendURL
		}
		if noColor {
			color.NoColor = true
		}

		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "search backend URL (default from config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
}
