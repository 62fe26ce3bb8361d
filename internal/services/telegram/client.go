package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
	"lottery-hub/internal/models"
)

// captionLimit is the Bot API limit for photo captions.
const captionLimit = 1024

type Client struct {
	bot         *tgbotapi.BotAPI
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

func NewClient(cfg config.TelegramConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Create a custom HTTP client with proper timeout settings
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          100,
		},
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, httpClient)
	if err != nil {
		logger.Error("Failed to create Telegram bot", zap.Error(err))
		return nil, apperr.Delivery(err, "authenticate telegram bot")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Client{
		bot:         bot,
		maxAttempts: maxAttempts,
		backoff:     time.Second,
		logger:      logger,
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID string, message string) error {
	chatIDInt, err := parseInt64(chatID)
	if err != nil {
		return apperr.Configuration(err, "invalid chat ID %q", chatID)
	}

	msg := tgbotapi.NewMessage(chatIDInt, message)
	msg.ParseMode = tgbotapi.ModeMarkdown

	return c.send(ctx, chatID, "message", msg)
}

// SendPhoto uploads image with caption as its Markdown caption. Captions over
// the Bot API limit follow the photo as a separate message.
func (c *Client) SendPhoto(ctx context.Context, chatID string, caption string, image models.Attachment) error {
	chatIDInt, err := parseInt64(chatID)
	if err != nil {
		return apperr.Configuration(err, "invalid chat ID %q", chatID)
	}

	name := image.Name
	if name == "" {
		name = "ticket"
	}
	photo := tgbotapi.NewPhoto(chatIDInt, tgbotapi.FileBytes{Name: name, Bytes: image.Data})

	longCaption := utf8.RuneCountInString(caption) > captionLimit
	if !longCaption {
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeMarkdown
	}

	if err := c.send(ctx, chatID, "photo", photo); err != nil {
		return err
	}
	if longCaption {
		return c.SendMessage(ctx, chatID, caption)
	}
	return nil
}

func (c *Client) send(ctx context.Context, chatID string, kind string, chattable tgbotapi.Chattable) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperr.Delivery(err, "send %s to chat %s", kind, chatID)
		}

		_, err := c.bot.Send(chattable)
		if err == nil {
			c.logger.Info("Telegram "+kind+" sent successfully",
				zap.String("chatID", chatID),
				zap.Int("attempt", attempt))
			return nil
		}

		lastErr = err
		c.logger.Warn("Failed to send Telegram "+kind,
			zap.String("chatID", chatID),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.maxAttempts))

		// API refusals other than rate limiting won't change on retry
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code != http.StatusTooManyRequests {
			break
		}

		// Don't retry on last attempt
		if attempt < c.maxAttempts {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * c.backoff
			c.logger.Info("Retrying Telegram send", zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return apperr.Delivery(ctx.Err(), "send %s to chat %s", kind, chatID)
			case <-time.After(backoff):
			}
		}
	}

	c.logger.Error("Failed to send Telegram "+kind,
		zap.String("chatID", chatID),
		zap.Error(lastErr))
	return apperr.Delivery(lastErr, "send %s to chat %s", kind, chatID)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
