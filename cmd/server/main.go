// Package main is the entry point for the authbox server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars)
// 2. Create dependencies (logger, database connections, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// This project has two executables: cmd/server (the API) and cmd/authbox
// (the CLI client). Each gets its own directory with its own main.go.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/arefin/authbox/internal/auth"
	"github.com/arefin/authbox/internal/server"
)

// fallbackSecret is the signing secret used when JWT_SECRET is unset.
// It exists so `go run ./cmd/server` works out of the box; every token it
// signs is forgeable by anyone reading this file. NEVER deploy without
// setting JWT_SECRET:
//
//	JWT_SECRET=$(openssl rand -hex 32)
const fallbackSecret = "fallback_secret_for_development"

func main() {
	// === 1. SET UP LOGGING ===
	// slog.New creates a structured logger. slog.NewTextHandler outputs human-readable logs.
	// os.Stdout means logs go to the terminal. slog.LevelDebug enables all log levels.
	//
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	// In production, you'd use LevelInfo or LevelWarn to reduce noise.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. READ CONFIGURATION ===
	// Everything comes from the process environment, with non-production
	// fallbacks so a bare `go run` works:
	//
	//	PORT            listening port            (default 5000)
	//	DB_PATH         SQLite database file      (default data/authbox.db)
	//	JWT_SECRET      token signing secret      (default: forgeable dev secret!)
	//	JWT_EXPIRES_IN  token expiry, Go duration (default 24h)
	//	APP_ENV         "development" adds error detail to 500 responses
	port := 5000
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/authbox.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Ensure the data directory exists.
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Warn("JWT_SECRET not set — using the built-in development secret; tokens are forgeable")
		jwtSecret = fallbackSecret
	}

	tokenTTL := auth.DefaultTokenTTL
	if ttlStr := os.Getenv("JWT_EXPIRES_IN"); ttlStr != "" {
		parsed, err := time.ParseDuration(ttlStr)
		if err != nil || parsed <= 0 {
			logger.Error("invalid JWT_EXPIRES_IN value (want a Go duration like 24h)",
				slog.String("value", ttlStr))
			os.Exit(1)
		}
		tokenTTL = parsed
	}

	development := os.Getenv("APP_ENV") == "development"
	if development {
		logger.Info("development mode — error responses include diagnostic detail")
	}

	// === 3. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:        port,
		DBPath:      dbPath,
		JWTSecret:   jwtSecret,
		TokenTTL:    tokenTTL,
		Development: development,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
