// Package main is the entry point for the social network API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (defaults, env vars, flags)
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/social-network/internal/config"
	"github.com/sakif/social-network/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Defaults, then environment (PORT, DB_PATH, SESSION_SECRET, ...), then
	// flags (-port, -db, -session-secret, ...).
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	// === 2. SET UP LOGGING ===
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.UsingDevSecret() {
		logger.Warn("SESSION_SECRET not set, using the development secret; session cookies can be forged by anyone who reads the source")
	}
	if cfg.PasswordMode == "plaintext" {
		logger.Warn("passwords are stored in plaintext; set PASSWORD_MODE=bcrypt to hash them")
	}

	// === 3. DATABASE DIRECTORY ===
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	if cfg.StoreDriver == config.DriverSQLite || cfg.SessionStore == config.SessionSQLite {
		if cfg.DBPath != ":memory:" {
			dbDir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				logger.Error("failed to create database directory",
					slog.String("dir", dbDir),
					slog.String("error", err.Error()),
				)
				os.Exit(1)
			}
		}
	}

	// === 4. CREATE AND START THE SERVER ===
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
