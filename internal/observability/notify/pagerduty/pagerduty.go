// Package pagerduty triggers incidents through the Events API v2.
package pagerduty

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/target/escrow-api/internal/observability/notify"
)

// APIEndpoint is the Events API v2 enqueue URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config for the PagerDuty sink.
type Config struct {
	RoutingKey string // Required: integration key of the service
	Source     string
	Component  string
	Timeout    time.Duration
	Attempts   int
	Client     *http.Client
	Endpoint   string // Optional: overrides APIEndpoint
}

// Client implements notify.Sink.
type Client struct {
	delivery   notify.Delivery
	routingKey string
	source     string
	component  string
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty: routing key is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &Client{
		delivery: notify.Delivery{
			Name:     "pagerduty",
			URL:      endpoint,
			Client:   notify.NewHTTPClient(cfg.Client, cfg.Timeout),
			Attempts: cfg.Attempts,
		},
		routingKey: key,
		source:     orDefault(cfg.Source, "escrow-api"),
		component:  orDefault(cfg.Component, "payments"),
	}, nil
}

// SendPaymentFailure implements notify.Sink. The dedup key folds repeat
// alerts for one incident into a single PagerDuty incident.
func (c *Client) SendPaymentFailure(ctx context.Context, p notify.PaymentFailurePayload) error {
	return c.delivery.PostJSON(ctx, c.event(p))
}

type event struct {
	RoutingKey  string  `json:"routing_key"`
	EventAction string  `json:"event_action"`
	DedupKey    string  `json:"dedup_key"`
	Payload     summary `json:"payload"`
}

type summary struct {
	Summary       string            `json:"summary"`
	Severity      string            `json:"severity"`
	Source        string            `json:"source"`
	Component     string            `json:"component"`
	Group         string            `json:"group,omitempty"`
	Class         string            `json:"class,omitempty"`
	Timestamp     string            `json:"timestamp"`
	CustomDetails map[string]string `json:"custom_details"`
}

func (c *Client) event(p notify.PaymentFailurePayload) event {
	severity := strings.ToLower(p.Severity)
	switch severity {
	case "critical", "error", "warning", "info":
	default:
		severity = notify.SeverityCritical
	}

	at := p.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	details := map[string]string{}
	maps.Copy(details, p.Metadata)
	set := func(k, v string) {
		if v != "" {
			details[k] = v
		}
	}
	set("job_id", p.JobID)
	set("milestone_id", p.MilestoneID)
	set("payment_intent_id", p.PaymentIntentID)
	set("transfer_id", p.TransferID)
	set("account_id", p.AccountID)
	set("amount", p.Money())
	set("error", p.Error)
	set("error_class", p.ErrorClass)

	title := fmt.Sprintf("Escrow %s", orDefault(p.Kind, "failure"))
	switch {
	case p.JobID != "" && p.MilestoneID != "":
		title += fmt.Sprintf(" on job %s milestone %s", p.JobID, p.MilestoneID)
	case p.AccountID != "":
		title += " for account " + p.AccountID
	}
	if m := p.Money(); m != "" {
		title += " (" + m + ")"
	}

	return event{
		RoutingKey:  c.routingKey,
		EventAction: "trigger",
		DedupKey:    p.DedupKey(),
		Payload: summary{
			Summary:       title,
			Severity:      severity,
			Source:        c.source,
			Component:     c.component,
			Group:         p.JobID,
			Class:         p.Kind,
			Timestamp:     at.UTC().Format(time.RFC3339),
			CustomDetails: details,
		},
	}
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
