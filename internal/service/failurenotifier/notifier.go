// Package failurenotifier fans partial payment failures out to alert sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/target/escrow-api/internal/observability/notify"
)

// recentCapacity bounds how many incidents the cooldown remembers.
const recentCapacity = 4096

// SinkRegistration names a sink for logs.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the notifier.
type Options struct {
	Logger *slog.Logger       // Optional: defaults to slog.Default
	Sinks  []SinkRegistration // Optional: none means every alert is dropped
	// SkipTestMode drops payloads whose metadata marks livemode=false.
	SkipTestMode bool
	// Cooldown suppresses repeats of one incident (same DedupKey) for this
	// long. Zero sends every alert.
	Cooldown time.Duration
}

// Service dispatches failures to every sink concurrently. Safe for
// concurrent use.
type Service struct {
	logger       *slog.Logger
	sinks        []SinkRegistration
	skipTestMode bool

	mu     sync.Mutex
	recent *expirable.LRU[string, struct{}]
}

// NewService builds a notifier; nil sinks are ignored.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		logger:       logger.With("component", "failure_notifier"),
		skipTestMode: opts.SkipTestMode,
	}
	for _, reg := range opts.Sinks {
		if reg.Sink == nil {
			continue
		}
		if reg.Name == "" {
			reg.Name = "sink"
		}
		s.sinks = append(s.sinks, reg)
	}
	if opts.Cooldown > 0 {
		s.recent = expirable.NewLRU[string, struct{}](recentCapacity, nil, opts.Cooldown)
	}
	return s
}

// coolingDown records key and reports whether it was already seen inside
// the cooldown window.
func (s *Service) coolingDown(key string) bool {
	if s.recent == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recent.Contains(key) {
		return true
	}
	s.recent.Add(key, struct{}{})
	return false
}

// Enabled reports whether any sink is registered.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}

// NotifyPaymentFailure delivers payload to all sinks and waits for them.
// Delivery errors are logged and never returned so alerting cannot fail the
// money path.
func (s *Service) NotifyPaymentFailure(ctx context.Context, payload notify.PaymentFailurePayload) {
	if !s.Enabled() {
		return
	}
	log := s.logger.With(
		"kind", payload.Kind,
		"job_id", payload.JobID,
		"milestone_id", payload.MilestoneID,
	)

	if s.skipTestMode && payload.Metadata["livemode"] == "false" {
		log.DebugContext(ctx, "test-mode alert dropped")
		return
	}
	if key := payload.DedupKey(); s.coolingDown(key) {
		log.DebugContext(ctx, "alert suppressed during cooldown", "dedup_key", key)
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var g errgroup.Group
	for _, reg := range s.sinks {
		g.Go(func() error {
			if err := reg.Sink.SendPaymentFailure(ctx, payload); err != nil {
				log.ErrorContext(ctx, "alert delivery failed", "sink", reg.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
