package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaktimishra84/icuflow"
	"github.com/shaktimishra84/icuflow/internal/config"
	"github.com/shaktimishra84/icuflow/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "icuflow",
	Short: "icuflow walks clinical decision algorithms and keeps the audit trail",
	Long: `icuflow loads JSON algorithm documents, runs interactive or served
cases against their decision trees, and records every step in an
append-only transcript.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "icuflow.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("data", "", "Directory containing algorithm JSON files (overrides config)")
}

// loadConfig resolves the effective configuration for a command,
// honoring the --data override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dir, _ := cmd.Flags().GetString("data"); dir != "" {
		cfg.Data.Dir = dir
	}
	return cfg, nil
}

// newApp builds the library-backed app most commands run against.
func newApp(cmd *cobra.Command, opts ...icuflow.Option) (*icuflow.App, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level))
	opts = append([]icuflow.Option{icuflow.WithLogger(logger)}, opts...)

	app, err := icuflow.New(cfg.Data.Dir, opts...)
	if err != nil {
		return nil, cfg, err
	}
	return app, cfg, nil
}
