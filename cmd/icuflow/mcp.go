package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaktimishra84/icuflow"
	"github.com/shaktimishra84/icuflow/internal/logging"
	"github.com/shaktimishra84/icuflow/pkg/adapters/file"
	"github.com/shaktimishra84/icuflow/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the algorithm engine as an MCP server over stdio.
This allows AI agents to browse documents and walk cases as tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		// Logs must not corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger := logging.New(logging.ParseLevel(cfg.Logging.Level))
		slog.SetDefault(logger)

		app, err := icuflow.New(cfg.Data.Dir,
			icuflow.WithLogger(logger),
			icuflow.WithStore(file.New(cfg.Store.Path)),
		)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		srv := mcp.NewServer(app)
		slog.Info("Starting icuflow MCP server (stdio)")
		if err := srv.ServeStdio(); err != nil {
			slog.Error("MCP server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
