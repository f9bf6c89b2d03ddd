// Package upstream fetches raw winds aloft text from aviationweather.gov.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"windsaloft-server/internal/modules/windsaloft/types"
)

const (
	DefaultBaseURL = "https://aviationweather.gov/api/data/windsaloft"
	maxBodyBytes   = 1 << 20
)

var (
	ErrUpstreamCall   = errors.New("upstream call failed")
	ErrUpstreamNoData = errors.New("no data available for the requested parameters")
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type Fetcher interface {
	Fetch(ctx context.Context, region string, tier types.Tier, horizon types.Horizon) (string, error)
}

type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a client for cfg. A nil httpClient uses http.DefaultClient;
// the per-call deadline comes from cfg.Timeout either way.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Fetch makes one GET for a single tier. There is no retry.
func (c *Client) Fetch(ctx context.Context, region string, tier types.Tier, horizon types.Horizon) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base url %q: %v", ErrUpstreamCall, c.cfg.BaseURL, err)
	}
	q := u.Query()
	q.Set("region", region)
	q.Set("level", string(tier))
	q.Set("fcst", string(horizon))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUpstreamCall, err)
	}
	req.Header.Set("Accept", "text/plain")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s tier: %w", ErrUpstreamCall, tier, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("close upstream body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s tier: status %d", ErrUpstreamCall, tier, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read %s tier: %w", ErrUpstreamCall, tier, err)
	}

	slog.Debug("upstream fetched",
		"region", region,
		"level", tier,
		"fcst", horizon,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	text := string(body)
	if isNoData(text) {
		return "", fmt.Errorf("%w (region=%s level=%s fcst=%s)", ErrUpstreamNoData, region, tier, horizon)
	}
	return text, nil
}

// isNoData matches the provider's plain text reply for parameters it has no
// product for. An empty body is left to the parser to reject.
func isNoData(body string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(body)), "no data")
}
