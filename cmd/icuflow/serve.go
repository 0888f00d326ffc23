package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/shaktimishra84/icuflow/internal/adapters/http"
	"github.com/shaktimishra84/icuflow/internal/config"
	"github.com/shaktimishra84/icuflow/internal/logging"
	"github.com/shaktimishra84/icuflow/pkg/adapters/file"
	"github.com/shaktimishra84/icuflow/pkg/adapters/memory"
	redisStore "github.com/shaktimishra84/icuflow/pkg/adapters/redis"
	"github.com/shaktimishra84/icuflow/pkg/adapters/sqlite"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/library"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the algorithm engine in server mode, exposing documents and case management as a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Address = addr
		}

		logger := logging.New(logging.ParseLevel(cfg.Logging.Level))

		lib, err := library.New(cfg.Data.Dir, library.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error scanning %s: %v\n", cfg.Data.Dir, err)
			os.Exit(1)
		}

		store, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Error building case store: %v\n", err)
			os.Exit(1)
		}

		exporter, cleanup, err := buildExporter(cfg)
		if err != nil {
			fmt.Printf("Error building exporter: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		handler := httpAdapter.NewHandler(lib, store,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithExporter(exporter),
		)

		srv := &http.Server{
			Addr:    cfg.Server.Address,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting icuflow server on %s\n", srv.Addr)
			fmt.Printf("Serving %d algorithm documents from: %s\n", lib.Len(), cfg.Data.Dir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("icuflow server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}

func buildStore(cfg config.Config) (ports.CaseStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.NewStore(), nil
	case "file":
		return file.New(cfg.Store.Path), nil
	case "redis":
		ttl, err := cfg.Store.Redis.TTLDuration()
		if err != nil {
			return nil, err
		}
		var opts []redisStore.Option
		if ttl > 0 {
			opts = append(opts, redisStore.WithTTL(ttl))
		}
		return redisStore.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, opts...), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildExporter assembles the transcript sinks: JSON/CSV files always,
// plus the SQLite archive when a path is configured.
func buildExporter(cfg config.Config) (ports.Exporter, func(), error) {
	exporters := multiExporter{file.NewExporter(cfg.Export.Dir)}
	cleanup := func() {}

	if cfg.Export.SQLitePath != "" {
		db, err := sqlite.Open(cfg.Export.SQLitePath)
		if err != nil {
			return nil, cleanup, err
		}
		exporters = append(exporters, sqlite.NewExporter(db))
		cleanup = func() { db.Close() }
	}

	return exporters, cleanup, nil
}

// multiExporter fans one record out to every configured sink. The first
// failure aborts the chain.
type multiExporter []ports.Exporter

func (m multiExporter) Export(ctx context.Context, rec caselog.ExportRecord) error {
	for _, e := range m {
		if err := e.Export(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
