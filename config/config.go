/*
Package config resolves server settings.

PRECEDENCE (highest first):
  1. Command-line flags
  2. Process environment
  3. .env file in the working directory (optional)
  4. Built-in defaults

FLAGS / ENVIRONMENT:
  -port          ATTENDANCE_PORT          HTTP port (default 3000)
  -backend       ATTENDANCE_BACKEND       json | sqlite | postgres | memory (default json)
  -db            ATTENDANCE_DB            JSON document or SQLite path (default data.json)
  -postgres-url  ATTENDANCE_POSTGRES_URL  PostgreSQL connection string
  -log-level     ATTENDANCE_LOG_LEVEL     debug | info | warn | error (default info)
  -cors-origins  ATTENDANCE_CORS_ORIGINS  comma-separated allowed origins
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Config holds all server configuration.
type Config struct {
	Port        int
	Backend     Backend
	DBPath      string
	PostgresURL string
	LogLevel    slog.Level
	CORSOrigins []string
}

// Load reads .env (when present) and the environment, then parses args
// as flags on top of them.
func Load(args []string) (Config, error) {
	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load()
	return parse(args, os.Getenv)
}

func parse(args []string, getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	defaultPort, err := strconv.Atoi(env("ATTENDANCE_PORT", "3000"))
	if err != nil {
		return Config{}, fmt.Errorf("ATTENDANCE_PORT: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	port := fs.Int("port", defaultPort, "HTTP server port")
	backend := fs.String("backend", env("ATTENDANCE_BACKEND", string(BackendJSON)), "record store backend: json, sqlite, postgres or memory")
	dbPath := fs.String("db", env("ATTENDANCE_DB", "data.json"), "JSON document or SQLite database path")
	pgURL := fs.String("postgres-url", env("ATTENDANCE_POSTGRES_URL", ""), "PostgreSQL connection string")
	logLevel := fs.String("log-level", env("ATTENDANCE_LOG_LEVEL", "info"), "log level: debug, info, warn or error")
	origins := fs.String("cors-origins", env("ATTENDANCE_CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), "comma-separated CORS origins")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:        *port,
		Backend:     Backend(strings.ToLower(*backend)),
		DBPath:      *dbPath,
		PostgresURL: *pgURL,
		CORSOrigins: splitList(*origins),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return Config{}, fmt.Errorf("log level: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Backend {
	case BackendJSON, BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("backend %s needs a database path", c.Backend)
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return errors.New("backend postgres needs a connection string")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
