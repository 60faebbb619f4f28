package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/virajbhatt/cardintel/internal/common"
	"github.com/virajbhatt/cardintel/internal/repository"
)

// dbhealth opens the configured database, pings it, and exits. Intended for
// container health probes and deploy smoke checks.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		MaxConns:    1,
		MinConns:    1,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database healthy")
}
