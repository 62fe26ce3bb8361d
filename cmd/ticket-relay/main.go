package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"lottery-hub/internal/app"
	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	logger := app.Logger(cfg)
	defer func(logger *zap.Logger) {
		_ = logger.Sync() // Ignore sync errors for stdout/stderr
	}(logger)

	if err != nil {
		logger.Error("Failed to load config", zap.String("kind", apperr.Kind(err)), zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunnerFor(cfg, logger, config.HookTicket)
	if err != nil {
		logger.Error("Failed to initialize services", zap.String("kind", apperr.Kind(err)), zap.Error(err))
		return 1
	}

	logger.Info("Relaying latest ticket email")
	if err := runner.RunTicket(ctx); err != nil {
		logger.Error("Ticket relay failed", zap.String("kind", apperr.Kind(err)), zap.Error(err))
		return 1
	}

	logger.Info("Ticket relay completed")
	return 0
}
