// Package draws fetches published Euromillions results.
package draws

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/models"
)

const (
	defaultURL     = "https://euromillions.api.pedromealha.dev/v1/draws"
	dateLayout     = "2006-01-02"
	maxPayloadSize = 16 << 20
)

var validate = validator.New()

// drawShape mirrors the official rules a published draw must satisfy.
type drawShape struct {
	Numbers []int `validate:"len=5,unique,dive,min=1,max=50"`
	Stars   []int `validate:"len=2,unique,dive,min=1,max=12"`
}

type ClientConfig struct {
	HTTPClient *http.Client
	URL        string
	Timeout    time.Duration
	UserAgent  string
	Logger     *zap.Logger
}

type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
	logger     *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 20 * time.Second,
			},
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = defaultURL
	}

	return &Client{
		httpClient: httpClient,
		url:        url,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// FetchLatest returns the draw with the most recent date published by the
// provider.
func (c *Client) FetchLatest(ctx context.Context) (models.DrawResult, error) {
	raw, err := c.get(ctx)
	if err != nil {
		return models.DrawResult{}, err
	}

	var payload []drawPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return models.DrawResult{}, apperr.Parse(err, "decode draws payload (%s)", abbreviate(raw))
	}
	if len(payload) == 0 {
		return models.DrawResult{}, apperr.Parse(nil, "provider returned no draws")
	}

	latest, latestDate, err := pickLatest(payload)
	if err != nil {
		return models.DrawResult{}, err
	}

	draw, err := toDrawResult(latest, latestDate)
	if err != nil {
		return models.DrawResult{}, err
	}

	c.logger.Info("Fetched latest draw",
		zap.String("date", latest.Date),
		zap.Ints("numbers", draw.Numbers),
		zap.Ints("stars", draw.Stars),
		zap.Int("draws_in_payload", len(payload)))

	return draw, nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperr.Fetch(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Fetch(err, "request draws")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, apperr.Fetch(err, "read draws response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Results provider returned an error status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", c.url))
		return nil, apperr.Fetch(nil, "provider status=%d body=%s", resp.StatusCode, abbreviate(raw))
	}

	return raw, nil
}

func pickLatest(payload []drawPayload) (drawPayload, time.Time, error) {
	var (
		latest     drawPayload
		latestDate time.Time
	)
	for i, item := range payload {
		date, err := time.Parse(dateLayout, strings.TrimSpace(item.Date))
		if err != nil {
			return drawPayload{}, time.Time{}, apperr.Parse(err, "draw %d has an unrecognized date %q", i, item.Date)
		}
		if i == 0 || date.After(latestDate) {
			latest = item
			latestDate = date
		}
	}
	return latest, latestDate, nil
}

func toDrawResult(item drawPayload, date time.Time) (models.DrawResult, error) {
	shape := drawShape{
		Numbers: toInts(item.Numbers),
		Stars:   toInts(item.Stars),
	}
	if err := validate.Struct(shape); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return models.DrawResult{}, apperr.Parse(nil, "draw %s: %s failed %q", item.Date, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return models.DrawResult{}, apperr.Parse(err, "draw %s", item.Date)
	}

	prizes := make([]models.PrizePayout, 0, len(item.Prizes))
	for _, p := range item.Prizes {
		prizes = append(prizes, models.PrizePayout{
			Numbers: int(p.MatchedNumbers),
			Stars:   int(p.MatchedStars),
			Amount:  float64(p.Prize),
			Winners: int(p.Winners),
		})
	}

	return models.DrawResult{
		ID:               string(item.DrawID),
		Date:             date,
		Numbers:          shape.Numbers,
		Stars:            shape.Stars,
		HasJackpotWinner: item.HasWinner,
		Prizes:           prizes,
	}, nil
}

func abbreviate(raw []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(raw))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
