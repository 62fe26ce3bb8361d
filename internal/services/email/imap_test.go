package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
	"lottery-hub/internal/models"
)

const ticketSender = "envios@loteriasyapuestas.es"

// startServer runs an in-memory IMAP server seeded with the given raw
// messages. The memory backend knows a single user: username/password.
func startServer(t *testing.T, messages ...string) config.EmailConfig {
	t.Helper()

	s := server.New(memory.New())
	s.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = s.Serve(l)
	}()
	t.Cleanup(func() {
		_ = s.Close()
	})

	addr := l.Addr().(*net.TCPAddr)
	seed, err := client.Dial(addr.String())
	require.NoError(t, err)
	require.NoError(t, seed.Login("username", "password"))
	for _, raw := range messages {
		require.NoError(t, seed.Append("INBOX", nil, time.Now(), bytes.NewBufferString(raw)))
	}
	require.NoError(t, seed.Logout())

	return config.EmailConfig{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: "username",
		Password: "password",
		TLS:      false,
		Timeout:  5 * time.Second,
	}
}

func rawEmail(from, subject, date, body string) string {
	return fmt.Sprintf("From: %s\r\n"+
		"To: player@example.com\r\n"+
		"Subject: %s\r\n"+
		"Date: %s\r\n"+
		"Message-ID: <%s@example.com>\r\n"+
		"Content-Type: text/html; charset=utf-8\r\n"+
		"\r\n"+
		"%s\r\n", from, subject, date, strings.ReplaceAll(date[5:16], " ", "-"), body)
}

func TestFetchLatest_NewestMatchingMessage(t *testing.T) {
	cfg := startServer(t,
		rawEmail(ticketSender, "Resguardo Euromillones", "Tue, 07 Oct 2025 09:00:00 +0200", "<p>older</p>"),
		rawEmail(ticketSender, "Resguardo Euromillones", "Tue, 14 Oct 2025 09:00:00 +0200", "<p>newest</p>"),
		rawEmail(ticketSender, "Boletin de novedades", "Wed, 15 Oct 2025 09:00:00 +0200", "<p>newsletter</p>"),
		rawEmail("someone@example.com", "Resguardo Euromillones", "Thu, 16 Oct 2025 09:00:00 +0200", "<p>spoof</p>"),
	)

	c := NewIMAPClient(cfg, zap.NewNop())
	email, err := c.FetchLatest(context.Background(), models.MailFilter{
		From:     ticketSender,
		Subjects: []string{"euromillones"},
	})
	require.NoError(t, err)

	assert.Equal(t, ticketSender, email.From)
	assert.Contains(t, email.HTML, "newest")
}

func TestFetchLatest_AnySubjectWhenNoneConfigured(t *testing.T) {
	cfg := startServer(t,
		rawEmail(ticketSender, "Resguardo Euromillones", "Tue, 07 Oct 2025 09:00:00 +0200", "<p>ticket</p>"),
		rawEmail(ticketSender, "Boletin de novedades", "Wed, 15 Oct 2025 09:00:00 +0200", "<p>newsletter</p>"),
	)

	email, err := NewIMAPClient(cfg, nil).FetchLatest(context.Background(), models.MailFilter{From: ticketSender})
	require.NoError(t, err)

	assert.Contains(t, email.HTML, "newsletter")
}

func TestFetchLatest_NotFound(t *testing.T) {
	cfg := startServer(t,
		rawEmail(ticketSender, "Boletin de novedades", "Wed, 15 Oct 2025 09:00:00 +0200", "<p>newsletter</p>"),
	)
	c := NewIMAPClient(cfg, zap.NewNop())

	_, err := c.FetchLatest(context.Background(), models.MailFilter{From: ticketSender, Subjects: []string{"resguardo"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)

	_, err = c.FetchLatest(context.Background(), models.MailFilter{From: "nobody@example.com"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)
}

func TestFetchLatest_BadCredentials(t *testing.T) {
	cfg := startServer(t)
	cfg.Password = "wrong"

	_, err := NewIMAPClient(cfg, zap.NewNop()).FetchLatest(context.Background(), models.MailFilter{From: ticketSender})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrFetch), "got %v", err)
	assert.Contains(t, err.Error(), "login as username")
}

func TestFetchLatest_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := config.EmailConfig{Host: "127.0.0.1", Port: port, Username: "u", Password: "p", Timeout: time.Second}

	_, err = NewIMAPClient(cfg, zap.NewNop()).FetchLatest(context.Background(), models.MailFilter{From: ticketSender})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrFetch))
}
