// Package main is the entry point for the foodgram API server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main"
// package. The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars)
// 2. Create dependencies (logger)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.). This separation keeps the app testable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points. A
// project might have multiple executables (e.g., cmd/server, cmd/seed);
// each gets its own directory with its own main.go.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/akozlova/foodgram/internal/server"
)

func main() {
	// slog.NewTextHandler outputs human-readable structured logs to the
	// terminal. In production you'd raise the level to Info or Warn.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// PORT defaults to 8080.
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// DB_PATH defaults to data/foodgram.db in the project root.
	// Example override: DB_PATH=/var/lib/foodgram/prod.db
	dbPath := "data/foodgram.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// MEDIA_DIR holds uploaded images (recipe photos, avatars), served back
	// under /media/. The image store creates it if missing.
	mediaDir := "data/media"
	if envMedia := os.Getenv("MEDIA_DIR"); envMedia != "" {
		mediaDir = envMedia
	}

	// BASE_URL is the public address short links are minted against. It
	// must be explicit — behind a reverse proxy the server can't guess it.
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", port)
	}

	// JWT_SECRET must be a long random string:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:      port,
		DBPath:    dbPath,
		MediaDir:  mediaDir,
		BaseURL:   baseURL,
		JWTSecret: jwtSecret,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
