package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
	"lottery-hub/internal/models"
)

type IMAPClient struct {
	config config.EmailConfig
	logger *zap.Logger
}

func NewIMAPClient(config config.EmailConfig, logger *zap.Logger) *IMAPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IMAPClient{
		config: config,
		logger: logger,
	}
}

// FetchLatest returns the newest INBOX message sent by filter.From whose
// subject contains one of filter.Subjects. The message is read with
// BODY.PEEK[] so its \Seen flag is left alone.
func (c *IMAPClient) FetchLatest(ctx context.Context, filter models.MailFilter) (models.Email, error) {
	imapClient, err := c.connectAndLogin()
	if err != nil {
		return models.Email{}, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = imapClient.Terminate()
	})
	defer stop()
	defer c.logout(imapClient)

	ids, err := c.searchSender(imapClient, filter.From)
	if err != nil {
		return models.Email{}, withContext(ctx, err)
	}
	if len(ids) == 0 {
		return models.Email{}, apperr.NotFound(nil, "no email from %s", filter.From)
	}

	seqNum, envelope, err := c.newestMatching(imapClient, ids, filter.Subjects)
	if err != nil {
		return models.Email{}, withContext(ctx, err)
	}
	if seqNum == 0 {
		return models.Email{}, apperr.NotFound(nil, "no email from %s with subject matching %q", filter.From, filter.Subjects)
	}

	c.logger.Info("Found ticket email",
		zap.String("subject", envelope.Subject),
		zap.Time("date", envelope.Date),
		zap.Uint32("seq", seqNum))

	email, err := c.fetchBody(imapClient, seqNum)
	if err != nil {
		return models.Email{}, withContext(ctx, err)
	}
	if email.ID == "" {
		email.ID = envelope.MessageId
	}
	if email.Subject == "" {
		email.Subject = envelope.Subject
	}
	return email, nil
}

func (c *IMAPClient) connectAndLogin() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	dialer := &net.Dialer{Timeout: c.config.Timeout}

	var (
		imapClient *client.Client
		err        error
	)
	if c.config.TLS {
		imapClient, err = client.DialWithDialerTLS(dialer, addr, nil)
	} else {
		imapClient, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		c.logger.Error("Failed to connect to IMAP server", zap.String("addr", addr), zap.Error(err))
		return nil, apperr.Fetch(err, "connect to %s", addr)
	}
	imapClient.Timeout = c.config.Timeout

	if err := imapClient.Login(c.config.Username, c.config.Password); err != nil {
		c.logger.Error("Failed to login", zap.String("username", c.config.Username), zap.Error(err))
		c.logout(imapClient)
		return nil, apperr.Fetch(err, "login as %s", c.config.Username)
	}

	if _, err := imapClient.Select("INBOX", true); err != nil {
		c.logger.Error("Failed to select INBOX", zap.Error(err))
		c.logout(imapClient)
		return nil, apperr.Fetch(err, "select INBOX")
	}

	return imapClient, nil
}

func (c *IMAPClient) logout(imapClient *client.Client) {
	if err := imapClient.Logout(); err != nil && err != client.ErrAlreadyLoggedOut {
		c.logger.Debug("Failed to logout from IMAP server", zap.Error(err))
	}
}

func (c *IMAPClient) searchSender(imapClient *client.Client, sender string) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	if sender != "" {
		criteria.Header.Add("From", sender)
	}

	ids, err := imapClient.Search(criteria)
	if err != nil {
		c.logger.Error("Failed to search emails", zap.String("sender", sender), zap.Error(err))
		return nil, apperr.Fetch(err, "search emails from %s", sender)
	}

	c.logger.Debug("Found emails from sender", zap.String("sender", sender), zap.Int("count", len(ids)))
	return ids, nil
}

// newestMatching returns the sequence number of the newest message whose
// subject matches, or zero.
func (c *IMAPClient) newestMatching(imapClient *client.Client, ids []uint32, subjects []string) (uint32, *imap.Envelope, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate}, messages)
	}()

	var (
		best     uint32
		bestEnv  *imap.Envelope
		bestDate time.Time
	)
	for msg := range messages {
		if msg.Envelope == nil || !subjectMatches(msg.Envelope.Subject, subjects) {
			continue
		}
		date := msg.Envelope.Date
		if date.IsZero() {
			date = msg.InternalDate
		}
		if best == 0 || date.After(bestDate) || (date.Equal(bestDate) && msg.SeqNum > best) {
			best = msg.SeqNum
			bestEnv = msg.Envelope
			bestDate = date
		}
	}

	if err := <-done; err != nil {
		c.logger.Error("Failed to fetch envelopes", zap.Error(err))
		return 0, nil, apperr.Fetch(err, "fetch envelopes")
	}
	return best, bestEnv, nil
}

func (c *IMAPClient) fetchBody(imapClient *client.Client, seqNum uint32) (models.Email, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNum)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var body imap.Literal
	for msg := range messages {
		if literal := msg.GetBody(section); literal != nil {
			body = literal
		}
	}
	if err := <-done; err != nil {
		c.logger.Error("Failed to fetch message body", zap.Uint32("seq", seqNum), zap.Error(err))
		return models.Email{}, apperr.Fetch(err, "fetch message %d", seqNum)
	}
	if body == nil {
		return models.Email{}, apperr.Fetch(nil, "server returned no body for message %d", seqNum)
	}

	return ParseMessage(body)
}

func subjectMatches(subject string, fragments []string) bool {
	if len(fragments) == 0 {
		return true
	}
	subject = strings.ToLower(subject)
	for _, fragment := range fragments {
		if strings.Contains(subject, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// withContext reports a cancelled run as such instead of as the broken
// connection the cancellation caused.
func withContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apperr.Fetch(ctxErr, "mailbox read interrupted")
	}
	return err
}
