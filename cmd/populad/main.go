// Command populad serves the cohort projection engine over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/popula/engine/internal/api"
	"github.com/popula/engine/internal/config"
	"github.com/popula/engine/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	scenarios, err := db.ListScenarios()
	if err != nil {
		slog.Error("failed to list scenarios", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario store ready", "scenarios", len(scenarios))

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("POPULA_ADMIN_KEY not set — admin endpoints will be disabled")
	}

	srv := &api.Server{DB: db, Cfg: cfg}
	srv.Start()

	fmt.Printf("\npopulad listening on http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Serving projections... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	fmt.Println("populad stopped.")
}
