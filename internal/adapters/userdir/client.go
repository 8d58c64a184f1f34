// Package userdir resolves payout accounts from the platform user directory.
package userdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/target/escrow-api/internal/core"
	apperrors "github.com/target/escrow-api/internal/errors"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultAttempts = 3
	maxBodyBytes    = 64 << 10
)

// Config configures the directory client. ClientID/TokenURL enable the
// OAuth2 client-credentials grant; otherwise requests are unauthenticated.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	Attempts     int
	Backoff      time.Duration
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Logger       *slog.Logger
	// HTTPClient overrides the transport (tests). Ignored when OAuth2 is configured.
	HTTPClient *http.Client
}

// Client implements core.UserDirectory over HTTP.
type Client struct {
	base     *url.URL
	http     *http.Client
	attempts int
	backoff  time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

var _ core.UserDirectory = (*Client)(nil)

type userResponse struct {
	ID              string `json:"id"`
	PayoutAccountID string `json:"payoutAccountId"`
}

// New builds a directory client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("userdir: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("userdir: parse base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		hc = cc.Client(context.Background())
	}
	hc.Timeout = timeout

	return &Client{
		base:     base,
		http:     hc,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger.With("component", "userdir"),
	}, nil
}

// PayoutAccountID returns the payout account registered for userID.
// Concurrent lookups for the same user share one request.
func (c *Client) PayoutAccountID(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperrors.ValidationField("userId", "user id is required")
	}
	v, err, _ := c.group.Do(userID, func() (any, error) {
		return c.fetchWithRetry(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	u, _ := v.(*userResponse)
	if u == nil || u.PayoutAccountID == "" {
		return "", apperrors.Validationf("user %s has no payout account", userID)
	}
	return u.PayoutAccountID, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, userID string) (*userResponse, error) {
	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		u, retry, err := c.fetch(ctx, userID)
		if err == nil {
			return u, nil
		}
		lastErr = err
		if !retry || attempt == c.attempts {
			break
		}
		c.logger.WarnContext(ctx, "user directory lookup failed, retrying",
			"user_id", userID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (c *Client) fetch(ctx context.Context, userID string) (*userResponse, bool, error) {
	endpoint := c.base.JoinPath("users", userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build user directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, apperrors.Upstream(err, "user directory unavailable")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, apperrors.Upstream(err, "read user directory response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NotFoundf("user %s not found in directory", userID)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, apperrors.Upstream(fmt.Errorf("status %d", resp.StatusCode), "user directory unavailable")
	case resp.StatusCode != http.StatusOK:
		return nil, false, apperrors.Upstream(fmt.Errorf("status %d", resp.StatusCode), "user directory rejected lookup")
	}

	var out userResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, false, apperrors.Upstream(err, "decode user directory response")
	}
	return &out, false, nil
}
