package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Delivery is an HTTP JSON endpoint with a retry budget.
type Delivery struct {
	Name     string // used in error messages, e.g. "slack"
	URL      string
	Client   *http.Client
	Attempts int           // total tries; values below 1 mean 1
	Backoff  time.Duration // grows linearly per attempt; 0 means 200ms
}

// NewHTTPClient returns client, or one with timeout when client is nil.
func NewHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// PostJSON encodes body and posts it until a 2xx, a 4xx other than 429, or
// the attempts run out.
func (d Delivery) PostJSON(ctx context.Context, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", d.Name, err)
	}

	attempts := max(d.Attempts, 1)
	backoff := d.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		retry, err := d.post(ctx, raw)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == attempts {
			break
		}

		t := time.NewTimer(time.Duration(attempt) * backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}

// post reports whether a failure is worth retrying.
func (d Delivery) post(ctx context.Context, raw []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(raw))
	if err != nil {
		return false, fmt.Errorf("%s: build request: %w", d.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return true, fmt.Errorf("%s: %w", d.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return retry, fmt.Errorf("%s: %s: %s", d.Name, resp.Status, strings.TrimSpace(string(snippet)))
}
