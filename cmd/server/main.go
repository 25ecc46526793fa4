// Command server runs the development backend the dashboard talks to.
//
// It is a reference implementation of the REST contract: chi routes,
// SQLite storage, bcrypt passwords and HS256 JWTs. Configuration comes from
// the environment (or a .env file):
//
//	PORT         listen port (default 3001)
//	DB_PATH      SQLite file (default data/backend.db)
//	JWT_SECRET   HMAC key, at least 16 characters (required)
//	TOKEN_TTL    token lifetime, e.g. 24h
//	ADMIN_EMAIL  promoted to admin on sign-up
//	LOG_LEVEL    debug | info | warn | error
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/trading-dashboard/internal/config"
	"github.com/sakif/trading-dashboard/internal/server"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// os.MkdirAll is `mkdir -p`; SQLite will not create missing directories.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	if cfg.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL not set; nobody will be promoted to admin at sign-up")
	}

	srv, err := server.New(*cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
