// Package notify defines payment failure alerts and the sinks that page on them.
package notify

import (
	"context"
	"strings"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Failure kinds.
const (
	KindTransferFailed  = "transfer_failed"
	KindCaptureFailed   = "capture_failed"
	KindListenerFailed  = "listener_failed"
	KindStuckMilestone  = "stuck_milestone"
	KindAccountRevoked  = "account_deauthorized"
	KindPayoutFailed    = "payout_failed"
	KindTransferReverse = "transfer_reversed"
)

// PaymentFailurePayload describes money that did not reach where it was
// heading, typically funds captured into platform balance but not transferred.
type PaymentFailurePayload struct {
	Kind            string
	JobID           string
	MilestoneID     string
	PaymentIntentID string
	TransferID      string
	AccountID       string
	Amount          string
	Currency        string
	Error           string
	ErrorClass      string
	Severity        string
	OccurredAt      time.Time
	Metadata        map[string]string
}

// DedupKey identifies the incident: kind plus the job and milestone it hit.
func (p PaymentFailurePayload) DedupKey() string {
	parts := []string{p.Kind}
	for _, part := range []string{p.JobID, p.MilestoneID, p.AccountID} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ":")
}

// Money renders "500.00 USD", or "" when no amount is known.
func (p PaymentFailurePayload) Money() string {
	if p.Amount == "" {
		return ""
	}
	return strings.TrimSpace(p.Amount + " " + strings.ToUpper(p.Currency))
}

// Sink delivers one alert. Implementations retry internally.
type Sink interface {
	SendPaymentFailure(ctx context.Context, payload PaymentFailurePayload) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, payload PaymentFailurePayload) error

// SendPaymentFailure implements Sink.
func (f SinkFunc) SendPaymentFailure(ctx context.Context, payload PaymentFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
