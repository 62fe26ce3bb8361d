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

	runner, err := app.NewRunnerFor(cfg, logger, config.HookResults)
	if err != nil {
		logger.Error("Failed to initialize services", zap.String("kind", apperr.Kind(err)), zap.Error(err))
		return 1
	}

	logger.Info("Checking Euromillions results")
	if err := runner.RunResults(ctx); err != nil {
		logger.Error("Results check failed", zap.String("kind", apperr.Kind(err)), zap.Error(err))
		return 1
	}

	logger.Info("Results check completed")
	return 0
}
