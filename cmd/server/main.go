/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration (flags, environment, .env)
  2. Open the selected record store
  3. Create the registry and API handler
  4. Start server with graceful shutdown

EXAMPLES:
  # JSON document next to the binary (default)
  ./server -db="./datos.json"

  # SQLite file
  ./server -backend=sqlite -db="./data/attendance.db"

  # PostgreSQL
  ATTENDANCE_POSTGRES_URL=postgres://... ./server -backend=postgres

SEE ALSO:
  - config/config.go: Flags and environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/store/jsonfile"
	"github.com/warp/attendance-engine/store/postgres"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	recordStore, closer, err := openStore(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to open record store", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	registry := attendance.NewRegistry(recordStore, logger)
	router := api.NewRouter(api.NewHandler(registry, logger), cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "backend", cfg.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore returns the configured record store and its release hook.
func openStore(ctx context.Context, cfg config.Config) (attendance.Store, io.Closer, error) {
	noop := closerFunc(func() error { return nil })

	switch cfg.Backend {
	case config.BackendJSON:
		return jsonfile.New(cfg.DBPath), noop, nil
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.BackendPostgres:
		s, err := postgres.New(ctx, postgres.DefaultConfig(cfg.PostgresURL))
		if err != nil {
			return nil, nil, err
		}
		return s, closerFunc(func() error { s.Close(); return nil }), nil
	case config.BackendMemory:
		return store.NewMemory(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
