package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/virajbhatt/cardintel/internal/common"
	"github.com/virajbhatt/cardintel/internal/dedupe"
	"github.com/virajbhatt/cardintel/internal/extract"
	"github.com/virajbhatt/cardintel/internal/extract/vision"
	"github.com/virajbhatt/cardintel/internal/llm"
	"github.com/virajbhatt/cardintel/internal/llm/gemini"
	"github.com/virajbhatt/cardintel/internal/pipeline"
	"github.com/virajbhatt/cardintel/internal/quota"
	"github.com/virajbhatt/cardintel/internal/repository"
	"github.com/virajbhatt/cardintel/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, pool, logger); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	usageRepo := repository.NewUsageRepository(pool, logger)
	directory := repository.NewClientDirectory(pool, logger)

	limiter := quota.NewLimiter(quota.Config{
		MonthlyCap:     cfg.Quota.MonthlyCap,
		MonthlyBlockAt: cfg.Quota.MonthlyBlockAt,
		HourlyCap:      cfg.Quota.HourlyCap,
		HourlyWindow:   cfg.Quota.HourlyWindow,
	}, usageRepo, logger)

	visionClient := vision.NewClient(vision.Config{
		APIKey:  cfg.Vision.APIKey,
		BaseURL: cfg.Vision.BaseURL,
		Timeout: cfg.Vision.Timeout,
	}, logger)
	extractor := extract.NewCardExtractor(visionClient, logger)

	geminiClient := gemini.NewClient(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		Timeout:     cfg.Gemini.Timeout,
	}, logger)
	parser := llm.NewCardParser(geminiClient, logger)

	engine := dedupe.NewEngine(directory, logger)

	processor := pipeline.NewProcessor(limiter, extractor, parser, engine, usageRepo, logger)

	srv := server.New(processor, limiter, pool, cfg.Uploads.TempDir, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("cardintel listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
