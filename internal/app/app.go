// Package app wires the configured services into a pipeline runner.
package app

import (
	"go.uber.org/zap"

	"lottery-hub/internal/config"
	"lottery-hub/internal/history"
	"lottery-hub/internal/models"
	"lottery-hub/internal/services/draws"
	"lottery-hub/internal/services/email"
	"lottery-hub/internal/services/notify"
	"lottery-hub/internal/services/processor"
	"lottery-hub/internal/services/telegram"
)

// Logger builds the process logger, falling back to the production logger
// when the configuration could not be loaded.
func Logger(cfg *config.Config) *zap.Logger {
	if cfg != nil {
		if logger, err := cfg.Log.NewLogger(); err == nil {
			return logger
		}
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewNotifier returns the delivery channel selected by notify.channel.
func NewNotifier(cfg *config.Config, logger *zap.Logger) (models.Notifier, error) {
	if cfg.Notify.Channel == config.ChannelEmail {
		return notify.NewEmailSender(cfg.Notify.SMTP, logger), nil
	}

	client, err := telegram.NewClient(cfg.Telegram, logger)
	if err != nil {
		return nil, err
	}
	return telegram.NewChatNotifier(client, cfg.Telegram.ChatID), nil
}

// NewLedger opens the sent-notification ledger, or returns nil when it is
// disabled.
func NewLedger(cfg *config.Config, logger *zap.Logger) (models.Ledger, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	if cfg.History.Backend == config.HistoryRedis {
		ledger, err := history.OpenRedis(cfg.History, logger)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	}
	ledger, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// NewRunnerFor validates the settings of the named pipelines and only then
// builds the runner, so a configuration error never follows a network call.
func NewRunnerFor(cfg *config.Config, logger *zap.Logger, pipelines ...string) (*processor.Runner, error) {
	if err := cfg.Validate(pipelines...); err != nil {
		return nil, err
	}
	return NewRunner(cfg, logger)
}

// NewRunner builds every collaborator and the runner driving them. The
// Telegram channel and the redis ledger contact their servers here.
func NewRunner(cfg *config.Config, logger *zap.Logger) (*processor.Runner, error) {
	notifier, err := NewNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	ledger, err := NewLedger(cfg, logger)
	if err != nil {
		return nil, err
	}

	services := processor.Services{
		Draws: draws.NewClient(draws.ClientConfig{
			URL:       cfg.Draws.URL,
			Timeout:   cfg.Draws.Timeout,
			UserAgent: cfg.Draws.UserAgent,
			Logger:    logger,
		}),
		Mailbox:  email.NewIMAPClient(cfg.Email, logger),
		Notifier: notifier,
		Ledger:   ledger,
	}
	return processor.NewRunner(cfg, services, logger), nil
}
