// Package slack posts payment failure alerts to an incoming webhook.
package slack

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/target/escrow-api/internal/observability/notify"
)

// Config for a Slack incoming webhook.
type Config struct {
	WebhookURL string       // Required
	Channel    string       // Optional: overrides the webhook's default channel
	Username   string       // Optional: defaults to "escrow"
	Timeout    time.Duration
	Attempts   int
	Client     *http.Client // Optional: tests inject httptest clients
	// JobURLPrefix turns job ids into links, e.g. https://ops.example/jobs.
	JobURLPrefix string
}

// Client implements notify.Sink.
type Client struct {
	delivery  notify.Delivery
	channel   string
	username  string
	jobPrefix *url.URL
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg.
func NewClient(cfg Config) (*Client, error) {
	hook := strings.TrimSpace(cfg.WebhookURL)
	if hook == "" {
		return nil, errors.New("slack: webhook url is required")
	}

	c := &Client{
		delivery: notify.Delivery{
			Name:     "slack",
			URL:      hook,
			Client:   notify.NewHTTPClient(cfg.Client, cfg.Timeout),
			Attempts: cfg.Attempts,
		},
		channel:  strings.TrimSpace(cfg.Channel),
		username: strings.TrimSpace(cfg.Username),
	}
	if c.username == "" {
		c.username = "escrow"
	}
	if p := strings.TrimSpace(cfg.JobURLPrefix); p != "" {
		u, err := url.Parse(p)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("slack: job url prefix %q is not an absolute url", p)
		}
		c.jobPrefix = u
	}
	return c, nil
}

// SendPaymentFailure implements notify.Sink.
func (c *Client) SendPaymentFailure(ctx context.Context, p notify.PaymentFailurePayload) error {
	return c.delivery.PostJSON(ctx, c.message(p))
}

type message struct {
	Channel  string  `json:"channel,omitempty"`
	Username string  `json:"username"`
	Text     string  `json:"text"`
	Blocks   []block `json:"blocks"`
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Fields   []text `json:"fields,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(s string) text { return text{Type: "mrkdwn", Text: s} }

// message renders a header line, a field grid and a context footer. Text is
// the notification fallback for clients that do not render blocks.
func (c *Client) message(p notify.PaymentFailurePayload) message {
	severity := p.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	icon := ":rotating_light:"
	if severity == notify.SeverityWarning {
		icon = ":warning:"
	}
	headline := fmt.Sprintf("%s *Escrow payment alert* `%s`", icon, orDash(p.Kind))

	var fields []text
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fields = append(fields, mrkdwn("*"+label+"*\n"+value))
		}
	}
	add("Job", c.jobLabel(p.JobID, p.MilestoneID))
	add("Amount", p.Money())
	add("Payment intent", escape(p.PaymentIntentID))
	add("Transfer", escape(p.TransferID))
	add("Account", escape(p.AccountID))
	add("Error", escape(strings.TrimSpace(p.ErrorClass+" "+p.Error)))
	for _, k := range slices.Sorted(maps.Keys(p.Metadata)) {
		add(k, escape(p.Metadata[k]))
	}

	at := p.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	blocks := []block{{Type: "section", Text: &text{Type: "mrkdwn", Text: headline}}}
	// Slack caps a section at ten fields.
	for chunk := range slices.Chunk(fields, 10) {
		blocks = append(blocks, block{Type: "section", Fields: chunk})
	}
	blocks = append(blocks, block{
		Type:     "context",
		Elements: []text{mrkdwn(severity + " · " + at.UTC().Format(time.RFC3339))},
	})

	return message{
		Channel:  c.channel,
		Username: c.username,
		Text:     fmt.Sprintf("Escrow payment alert: %s on job %s", orDash(p.Kind), orDash(p.JobID)),
		Blocks:   blocks,
	}
}

// jobLabel renders "job / milestone", linking the job when a prefix is set.
func (c *Client) jobLabel(jobID, milestoneID string) string {
	jobID = strings.TrimSpace(jobID)
	milestoneID = escape(strings.TrimSpace(milestoneID))
	if jobID == "" {
		return milestoneID
	}

	label := escape(jobID)
	if c.jobPrefix != nil {
		label = fmt.Sprintf("<%s|%s>", c.jobPrefix.JoinPath(jobID).String(), label)
	}
	if milestoneID != "" {
		label += " / milestone " + milestoneID
	}
	return label
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return escaper.Replace(s) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
