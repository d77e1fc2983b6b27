package main

import (
	"log/slog"
	"os"

	"github.com/noodlz/noodlz/internal/api"
	"github.com/noodlz/noodlz/internal/config"
	"github.com/noodlz/noodlz/internal/storage/sqlite"
	"github.com/noodlz/noodlz/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		slog.Error("SESSION_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	server := api.New(cfg, store)
	router := server.Router()

	slog.Info("Server starting", "address", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
