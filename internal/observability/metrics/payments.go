// Package metrics emits the escrow service's StatsD metrics.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/escrow-api/internal/observability/errors"
	"github.com/target/escrow-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultReplay  = "replay"
	ResultNoop    = "noop"
)

// Metric names, relative to the client prefix (escrow).
const (
	PaymentOperation  = "payment.operation"
	PaymentDuration   = "payment.duration"
	WebhookEvent      = "webhook.event"
	MilestoneChange   = "milestone.transition"
	PartialFailures   = "partial_failures"
	SweeperResynced   = "sweeper.resynced"
	WebhookEventsGone = "webhook.pruned"
)

// PaymentMetric captures one processor-facing operation.
type PaymentMetric struct {
	Operation   string // hold, capture, transfer, sync
	PaymentType string
	Result      string
	Duration    time.Duration
	Err         error
}

// EmitPayment emits a counter and, when timed, a duration for a payment operation.
func EmitPayment(sink statsd.Sink, in PaymentMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}
	if in.PaymentType != "" {
		tags["payment_type"] = in.PaymentType
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(PaymentOperation, 1, tags)

	if in.Duration > 0 {
		sink.Timing(PaymentDuration, in.Duration, CloneTags(tags))
	}
}

// EmitWebhook counts a processed webhook event by type and outcome.
func EmitWebhook(sink statsd.Sink, eventType, result string) {
	if sink == nil {
		return
	}
	sink.Count(WebhookEvent, 1, map[string]string{"event_type": eventType, "result": result})
}

// EmitMilestoneTransition counts milestone status changes.
func EmitMilestoneTransition(sink statsd.Sink, from, to string) {
	if sink == nil {
		return
	}
	sink.Count(MilestoneChange, 1, map[string]string{"from": from, "to": to})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
