// Package cmd holds the stock-insights CLI commands
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/stock-insights/internal/config"
	"github.com/trogers1052/stock-insights/internal/logger"
)

const (
	serviceName    = "stock-insights"
	serviceVersion = "1.0.0"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stock-insights",
	Short: "Stock Insights API - stock records and screener import",
	Long: `Stock Insights API

Commands:
    serve             - HTTP API server (default)
    migrate up|down   - apply or roll back database migrations
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// initConfig loads the env file, reads configuration and sets up logging
func initConfig() error {
	if cfgFile != "" {
		if err := godotenv.Load(cfgFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", cfgFile, err)
		}
	}

	cfg = config.Load()
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := logger.Init(logger.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		RotationSize:   cfg.Logging.RotationSize,
		RetentionDays:  cfg.Logging.RetentionDays,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return err
	}

	log.Debug().Str("config_file", cfgFile).Msg("Configuration loaded")
	return nil
}
