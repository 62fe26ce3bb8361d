package notify

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
	"lottery-hub/internal/models"
)

// EmailSender delivers notifications via SMTP as plain text, with the
// notification image attached.
type EmailSender struct {
	cfg     config.SMTPConfig
	deliver func(*gomail.Message) error
	logger  *zap.Logger
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg config.SMTPConfig, logger *zap.Logger) *EmailSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = 10 * time.Second
	dialer.StartTLSPolicy = gomail.MandatoryStartTLS

	return &EmailSender{
		cfg:     cfg,
		deliver: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
		logger:  logger,
	}
}

func (s *EmailSender) Notify(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return apperr.Delivery(err, "email to %s", s.cfg.To)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Text)

	if n.Image != nil {
		settings := []gomail.FileSetting{}
		if n.Image.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {n.Image.ContentType},
			}))
		}
		name := n.Image.Name
		if name == "" {
			name = "ticket"
		}
		m.AttachReader(name, bytes.NewReader(n.Image.Data), settings...)
	}

	if err := s.deliver(m); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", s.cfg.To),
			zap.String("subject", n.Subject),
			zap.Error(err))
		return apperr.Delivery(err, "email to %s", s.cfg.To)
	}

	s.logger.Info("Email sent", zap.String("to", s.cfg.To), zap.String("subject", n.Subject))
	return nil
}
