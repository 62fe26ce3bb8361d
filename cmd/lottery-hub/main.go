package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lottery-hub/internal/app"
	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
	"lottery-hub/internal/handlers"
)

// runTimeout bounds one triggered run. It covers the IMAP and HTTP client
// timeouts with room for delivery.
const runTimeout = 3 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	logger := app.Logger(cfg)
	defer func(logger *zap.Logger) {
		_ = logger.Sync() // Ignore sync errors for stdout/stderr
	}(logger)

	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal("Invalid server configuration", zap.Error(err))
	}

	// Initialize services for every registered hook
	runner, err := app.NewRunnerFor(cfg, logger, cfg.HookNames()...)
	if err != nil {
		logger.Fatal("Failed to initialize services",
			zap.String("kind", apperr.Kind(err)),
			zap.Error(err))
	}

	// Setup HTTP server for triggers
	router := mux.NewRouter()
	triggerHandler := handlers.NewTriggerHandler(runner, runTimeout, logger)
	if err := triggerHandler.Register(router, cfg.Hook); err != nil {
		logger.Fatal("Failed to register trigger routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: runTimeout + 15*time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
