package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/models"
	"lottery-hub/internal/services/matcher"
)

const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"

	HookResults = "results"
	HookTicket  = "ticket"

	HistoryFile  = "file"
	HistoryRedis = "redis"
)

type Config struct {
	Log      LogConfig       `mapstructure:"log"`
	Server   ServerConfig    `mapstructure:"server"`
	Telegram TelegramConfig  `mapstructure:"telegram"`
	Player   PlayerConfig    `mapstructure:"player"`
	Draws    DrawsConfig     `mapstructure:"draws"`
	Email    EmailConfig     `mapstructure:"email"`
	Ticket   TicketConfig    `mapstructure:"ticket"`
	Notify   NotifyConfig    `mapstructure:"notify"`
	History  HistoryConfig   `mapstructure:"history"`
	Hook     []WebhookConfig `mapstructure:"hook"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token" validate:"required"`
	ChatID      string `mapstructure:"chat_id" validate:"required,numeric"`
	APIEndpoint string `mapstructure:"api_endpoint" validate:"required"`
	MaxAttempts int    `mapstructure:"max_attempts" validate:"min=1,max=5"`
}

// PlayerConfig holds the combination as comma separated text ("03,15,22,34,48").
type PlayerConfig struct {
	Numbers string `mapstructure:"numbers" validate:"required"`
	Stars   string `mapstructure:"stars" validate:"required"`
}

type DrawsConfig struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// EmailConfig describes the IMAP mailbox holding the ticket confirmations.
type EmailConfig struct {
	Host     string        `mapstructure:"host" validate:"required"`
	Port     int           `mapstructure:"port" validate:"min=1,max=65535"`
	Username string        `mapstructure:"username" validate:"required"`
	Password string        `mapstructure:"password" validate:"required"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type TicketConfig struct {
	EmailFrom    string   `mapstructure:"email_from" validate:"required"`
	EmailSubject []string `mapstructure:"email_subject"`
	AttachImage  bool     `mapstructure:"attach_image"`
}

type NotifyConfig struct {
	Channel string     `mapstructure:"channel" validate:"oneof=telegram email"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	From     string `mapstructure:"from" validate:"required,email"`
	To       string `mapstructure:"to" validate:"required,email"`
}

// HistoryConfig enables the sent-notification ledger. Off by default: every
// run then notifies, even when the same draw was already reported.
type HistoryConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"`
	Path    string        `mapstructure:"path"`
	Redis   RedisConfig   `mapstructure:"redis"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address" validate:"required"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type WebhookConfig struct {
	Name string `mapstructure:"name" validate:"oneof=results ticket"`
	Path string `mapstructure:"path" validate:"required,startswith=/"`
}

var validate = validator.New()

// legacyEnv maps config keys to the variable names used by the scheduled
// runner. The prefixed form LOTTERY_<SECTION>_<KEY> works for every key.
var legacyEnv = map[string]string{
	"telegram.bot_token": "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":   "TELEGRAM_CHAT_ID",
	"player.numbers":     "MY_NUMBERS",
	"player.stars":       "MY_STARS",
	"email.username":     "GMAIL_ADDRESS",
	"email.password":     "GMAIL_APP_PASSWORD",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file := os.Getenv("LOTTERY_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("/app/configs")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/app")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Environment variables override
	v.SetEnvPrefix("LOTTERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "LOTTERY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, apperr.Configuration(err, "bind env %s", legacy)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperr.Configuration(err, "read config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperr.Configuration(err, "decode config")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.development", false)
	v.SetDefault("server.address", ":8080")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("telegram.max_attempts", 1)

	v.SetDefault("player.numbers", "")
	v.SetDefault("player.stars", "")

	v.SetDefault("draws.url", "https://euromillions.api.pedromealha.dev/v1/draws")
	v.SetDefault("draws.timeout", 30*time.Second)
	v.SetDefault("draws.user_agent", "Mozilla/5.0")

	v.SetDefault("email.host", "imap.gmail.com")
	v.SetDefault("email.port", 993)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.tls", true)
	v.SetDefault("email.timeout", 60*time.Second)

	v.SetDefault("ticket.email_from", "envios@loteriasyapuestas.es")
	v.SetDefault("ticket.email_subject", []string{})
	v.SetDefault("ticket.attach_image", false)

	v.SetDefault("notify.channel", ChannelTelegram)
	v.SetDefault("notify.smtp.host", "smtp.gmail.com")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.smtp.username", "")
	v.SetDefault("notify.smtp.password", "")
	v.SetDefault("notify.smtp.from", "")
	v.SetDefault("notify.smtp.to", "")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.backend", HistoryFile)
	v.SetDefault("history.path", "")
	v.SetDefault("history.ttl", 90*24*time.Hour)
	v.SetDefault("history.redis.address", "localhost:6379")
	v.SetDefault("history.redis.password", "")
	v.SetDefault("history.redis.db", 0)
	v.SetDefault("history.redis.timeout", 5*time.Second)

	v.SetDefault("hook", []map[string]interface{}{
		{"name": HookResults, "path": "/hooks/results"},
		{"name": HookTicket, "path": "/hooks/ticket"},
	})
}

// ValidateResults checks everything the results run needs before it touches
// the network.
func (c *Config) ValidateResults() error {
	if err := c.ValidateNotify(); err != nil {
		return err
	}
	if err := c.ValidateHistory(); err != nil {
		return err
	}
	if err := check("draws", c.Draws); err != nil {
		return err
	}
	if err := check("player", c.Player); err != nil {
		return err
	}
	sel, err := c.Player.Selection()
	if err != nil {
		return err
	}
	return matcher.ValidateSelection(sel)
}

// ValidateTicket checks everything the ticket run needs.
func (c *Config) ValidateTicket() error {
	if err := c.ValidateNotify(); err != nil {
		return err
	}
	if err := c.ValidateHistory(); err != nil {
		return err
	}
	if err := check("email", c.Email); err != nil {
		return err
	}
	return check("ticket", c.Ticket)
}

// Validate checks the notification and ledger settings plus everything the
// named pipelines need.
func (c *Config) Validate(pipelines ...string) error {
	if err := c.ValidateNotify(); err != nil {
		return err
	}
	if err := c.ValidateHistory(); err != nil {
		return err
	}
	for _, name := range pipelines {
		var err error
		switch name {
		case HookResults:
			err = c.ValidateResults()
		case HookTicket:
			err = c.ValidateTicket()
		default:
			err = apperr.Configuration(nil, "unknown pipeline %q", name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// HookNames lists the pipelines reachable through the trigger server.
func (c *Config) HookNames() []string {
	names := make([]string, 0, len(c.Hook))
	for _, hook := range c.Hook {
		names = append(names, hook.Name)
	}
	return names
}

// ValidateServer checks the trigger server settings.
func (c *Config) ValidateServer() error {
	if err := check("server", c.Server); err != nil {
		return err
	}
	for _, hook := range c.Hook {
		if err := check("hook", hook); err != nil {
			return err
		}
	}
	return nil
}

// ValidateHistory checks the ledger settings when the ledger is enabled.
func (c *Config) ValidateHistory() error {
	if !c.History.Enabled {
		return nil
	}
	if err := check("history", struct {
		Backend string        `validate:"oneof=file redis"`
		TTL     time.Duration `validate:"gte=0"`
	}{c.History.Backend, c.History.TTL}); err != nil {
		return err
	}
	if c.History.Backend == HistoryRedis {
		return check("history.redis", c.History.Redis)
	}
	return nil
}

// ValidateNotify checks the settings of the selected delivery channel.
func (c *Config) ValidateNotify() error {
	if err := check("notify", struct {
		Channel string `validate:"oneof=telegram email"`
	}{c.Notify.Channel}); err != nil {
		return err
	}
	if c.Notify.Channel == ChannelEmail {
		return check("notify.smtp", c.Notify.SMTP)
	}
	return check("telegram", c.Telegram)
}

// Selection parses the configured combination. Range and uniqueness rules
// are enforced by the matcher.
func (p PlayerConfig) Selection() (models.PlayerSelection, error) {
	numbers, err := parseInts(p.Numbers)
	if err != nil {
		return models.PlayerSelection{}, apperr.Configuration(err, "player numbers")
	}
	stars, err := parseInts(p.Stars)
	if err != nil {
		return models.PlayerSelection{}, apperr.Configuration(err, "player stars")
	}
	return models.PlayerSelection{Numbers: numbers, Stars: stars}, nil
}

// ChatIDInt returns the chat identifier as the Bot API expects it.
func (t TelegramConfig) ChatIDInt() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(t.ChatID), 10, 64)
	if err != nil {
		return 0, apperr.Configuration(err, "invalid chat ID %q", t.ChatID)
	}
	return id, nil
}

// NewLogger builds the process logger.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	if l.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("value is empty")
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func check(section string, value interface{}) error {
	if err := validate.Struct(value); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Configuration(nil, "%s.%s: failed %q validation", section, strings.ToLower(fe.Field()), fe.Tag())
		}
		return apperr.Configuration(err, "%s settings", section)
	}
	return nil
}
