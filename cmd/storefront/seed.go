package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"optivista/internal/domain/catalog"
	"optivista/internal/platform/di"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the image catalog with a seed set",
	Long: `Deletes every image in the catalog and writes the seed set.

Without --file the bundled sample catalog is used.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file (default: bundled catalog)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := boot()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	images, err := loadSeed(seedFile)
	if err != nil {
		return err
	}

	cont, err := di.NewContainer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cont.Close()

	n, err := cont.CatalogUC.Seed(cmd.Context(), images)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.Int("images", n), zap.String("store", cfg.StoreBackend))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d images\n", n)
	return nil
}

func loadSeed(path string) ([]catalog.Image, error) {
	if path == "" {
		return catalog.SeedImages()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return catalog.ParseSeed(raw)
}
