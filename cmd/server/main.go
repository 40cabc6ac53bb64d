/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the habit tracker API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, optional YAML file, KEYSTONE_* env)
  2. Initialize logging
  3. Open the SQLite store and seed the default catalog on first run
  4. Build the tracker service, router and rollover scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides storage.db_path
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the rollover scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/keystone.db"
  ./server -db=":memory:" -port=3000
  KEYSTONE_CALENDAR_TIMEZONE=Europe/Paris ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/keystone/habit-engine/api"
	"github.com/keystone/habit-engine/config"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/store/sqlite"
	"github.com/keystone/habit-engine/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "Path to a YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}

	if err := logger.Init(logger.Config{
		Level:   cfg.Log.Level,
		Dir:     cfg.Log.Dir,
		Debug:   cfg.Log.Debug,
		Console: true,
	}); err != nil {
		return err
	}
	defer logger.Close()

	// Initialize store
	if dir := dirOf(cfg.Storage.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	engine, err := scoring.NewEngine(cfg.Scoring.Thresholds())
	if err != nil {
		return err
	}
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return err
	}

	svc := tracker.NewService(store, engine, tracker.WithLocation(loc))
	seeded, err := svc.EnsureSeeded(context.Background())
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("seeded default habit catalog")
	}

	// Scheduler
	scheduler := api.NewRolloverScheduler(svc)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.CheckInterval
	if cfg.Backup.OnRollover {
		scheduler.BackupDir = cfg.Backup.Dir
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(api.NewHandler(svc), cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", fmt.Sprintf("http://localhost:%d/api", cfg.Server.Port),
			"db", cfg.Storage.DBPath, "today", svc.Today(),
			"mvd", engine.Thresholds().MVD, "strong", engine.Thresholds().Strong)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// dirOf returns the directory holding a file-backed database, or "".
func dirOf(dbPath string) string {
	if dbPath == ":memory:" {
		return ""
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		return dir
	}
	return ""
}
