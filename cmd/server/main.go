/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the NBOT overtime engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Initialize SQLite store (imports, site directory, run log)
  3. Connect the warehouse when WAREHOUSE_DSN is set
  4. Load overtime rules (RULES_FILE or built-in defaults)
  5. Create report service, API handler and router
  6. Start the region refresh scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database
  -rules   Overtime rules JSON file (overrides RULES_FILE)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connections

EXAMPLES:
  # Run with file database
  ./server -db="./data/nbot.db"

  # Run against the warehouse, refreshing two regions nightly
  WAREHOUSE_DSN=postgres://... REFRESH_REGIONS=West,East ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - api/scheduler.go: Region refresh
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/nbot-engine/api"
	"github.com/warp/nbot-engine/config"
	"github.com/warp/nbot-engine/factory"
	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
	"github.com/warp/nbot-engine/report"
	"github.com/warp/nbot-engine/store/postgres"
	"github.com/warp/nbot-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Storage.Path, "SQLite database path")
	rulesFile := flag.String("rules", cfg.Rules.File, "Overtime rules JSON file")
	flag.Parse()

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := api.NewLogger(os.Stdout, level, cfg.App.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	if *dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Reports read from the warehouse when configured, else from imports.
	var source generic.ShiftSource = store
	if cfg.Warehouse.DSN != "" {
		wh, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Warehouse.DSN, Table: cfg.Warehouse.Table})
		if err != nil {
			return err
		}
		defer wh.Close()
		source = wh
		logger.Info("reading shifts from warehouse", "table", cfg.Warehouse.Table)
	}

	rules := overtime.DefaultRules()
	if *rulesFile != "" {
		rules, err = factory.NewRulesFactory().LoadFile(*rulesFile)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		logger.Info("loaded overtime rules", "file", *rulesFile)
	}

	svc := report.NewService(source, store, rules, logger)
	handler := api.NewHandler(svc, store, logger)
	handler.WeekAnchor = cfg.Refresh.WeekAnchor
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	scheduler := api.NewRefreshScheduler(svc, cfg.Refresh.Regions, logger)
	scheduler.Interval = cfg.Refresh.Interval
	scheduler.WeekAnchor = cfg.Refresh.WeekAnchor
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
