// Package main is the entry point for the DailyBite API server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main"
// package. Its job here is deliberately small:
//  1. Load configuration
//  2. Create the logger
//  3. Build and start the server
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, …). The cmd/ directory is the Go convention for
// executable entry points; a project with more binaries would add
// cmd/migrate, cmd/cli, and so on.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dailybite/dailybite/internal/config"
	"github.com/dailybite/dailybite/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger doesn't exist yet — plain stderr is all we have.
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	// Ensure the database directory exists before sqlite tries to create
	// the file inside it.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
