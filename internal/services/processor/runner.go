package processor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
	"lottery-hub/internal/models"
	"lottery-hub/internal/services/matcher"
)

// Services are the collaborators a Runner drives. Ledger is optional.
type Services struct {
	Draws    models.DrawFetcher
	Mailbox  models.MailSource
	Notifier models.Notifier
	Ledger   models.Ledger
}

// Runner executes the results and ticket pipelines. Each run is a single
// synchronous sequence and any failure aborts it before anything is sent.
type Runner struct {
	config   *config.Config
	services Services
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRunner(cfg *config.Config, services Services, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:   cfg,
		services: services,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// RunResults checks the latest draw against the configured combination and
// notifies the outcome.
func (r *Runner) RunResults(ctx context.Context) error {
	sel, err := r.config.Player.Selection()
	if err != nil {
		return err
	}
	if err := matcher.ValidateSelection(sel); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Fetch(err, "results run cancelled")
	}

	draw, err := r.services.Draws.FetchLatest(ctx)
	if err != nil {
		return err
	}

	key := "results:" + draw.Date.Format(drawDateLayout)
	defer r.lock(key)()
	if r.alreadySent(key) {
		return nil
	}

	outcome, err := matcher.Evaluate(sel, draw)
	if err != nil {
		return err
	}

	r.logger.Info("Draw evaluated",
		zap.String("draw_date", draw.Date.Format(drawDateLayout)),
		zap.Int("matched_numbers", outcome.NumberMatches),
		zap.Int("matched_stars", outcome.StarMatches),
		zap.Int("tier", outcome.Tier.Rank),
		zap.String("category", outcome.Tier.Label))

	notification := models.Notification{
		Subject: fmt.Sprintf("Euromillions result %s", draw.Date.Format(drawDateLayout)),
		Text:    RenderResults(draw, sel, outcome),
	}
	if err := r.services.Notifier.Notify(ctx, notification); err != nil {
		return err
	}

	r.record(key)
	return nil
}

// RunTicket relays the newest ticket confirmation email.
func (r *Runner) RunTicket(ctx context.Context) error {
	email, err := r.services.Mailbox.FetchLatest(ctx, models.MailFilter{
		From:     r.config.Ticket.EmailFrom,
		Subjects: r.config.Ticket.EmailSubject,
	})
	if err != nil {
		return err
	}

	key := "ticket:" + email.ID
	if email.ID == "" {
		key = fmt.Sprintf("ticket:%s|%s", email.Subject, email.Date.UTC().Format("20060102T150405"))
	}
	defer r.lock(key)()
	if r.alreadySent(key) {
		return nil
	}

	body := email.HTML
	if body == "" {
		body = email.TextPlain
	}
	if body == "" {
		return apperr.Parse(nil, "email %q has no readable body", email.Subject)
	}

	ticket, err := ExtractTicket(body)
	if err != nil {
		return err
	}

	r.logger.Info("Ticket extracted",
		zap.Strings("numbers", ticket.Numbers),
		zap.Strings("stars", ticket.Stars),
		zap.String("draw_date", ticket.DrawDate),
		zap.String("millon_code", ticket.MillonCode),
		zap.String("reference", ticket.Reference))

	notification := models.Notification{
		Subject: "Euromillones - Resguardo",
		Text:    RenderTicket(ticket),
	}
	if r.config.Ticket.AttachImage && len(email.Images) > 0 {
		image := email.Images[0]
		notification.Image = &image
	}
	if err := r.services.Notifier.Notify(ctx, notification); err != nil {
		return err
	}

	r.record(key)
	return nil
}

// lock holds key from the ledger lookup until the record, so a concurrent run
// for the same draw or email waits and then finds it already sent.
func (r *Runner) lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Runner) alreadySent(key string) bool {
	if r.services.Ledger == nil || !r.services.Ledger.Seen(key) {
		return false
	}
	r.logger.Info("Notification already sent, skipping", zap.String("key", key))
	return true
}

// record runs after a successful delivery, so a ledger failure is logged
// rather than turning the run into a failure.
func (r *Runner) record(key string) {
	if r.services.Ledger == nil {
		return
	}
	if err := r.services.Ledger.Record(key); err != nil {
		r.logger.Error("Failed to record sent notification",
			zap.String("key", key),
			zap.String("kind", apperr.Kind(err)),
			zap.Error(err))
	}
}
