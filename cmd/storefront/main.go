// cmd/storefront/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "optivista/internal/infra/config"
	"optivista/internal/infra/logging"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Optivista photography storefront backend",
	Long: `Optivista serves the storefront API: catalog, cart, UPI checkout,
contact form, profiles, admin tools and live WebSocket feeds.

Configuration comes from the environment, with an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, devTokenCmd)
}

// boot loads config and the process logger shared by every subcommand.
func boot() (*appcfg.Config, *zap.Logger, error) {
	cfg := appcfg.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
