package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/model"
	obserrors "github.com/target/escrow-api/internal/observability/errors"
	"github.com/target/escrow-api/internal/observability/metrics"
	"github.com/target/escrow-api/internal/observability/notify"
	"github.com/target/escrow-api/internal/observability/statsd"
	"github.com/target/escrow-api/internal/service/failurenotifier"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Payments core.PaymentRepository      // Required: stale hold lookup
	Syncer   core.PaymentSyncer          // Required: processor re-read
	Stuck    core.StuckMilestoneFinder   // Required: escrowed-but-unpaid scan
	Events   core.WebhookEventRepository // Required: dedupe table pruning
	Config   config.SweeperConfig        // Required: sweeper configuration
	Notifier *failurenotifier.Service    // Optional: stuck milestone alerts
	Logger   *slog.Logger                // Optional: structured logger
	Metrics  statsd.Sink                 // Optional: metrics sink (StatsD-compatible)
	Now      func() time.Time            // Optional: clock for tests
}

// SweeperService reconciles what webhooks missed.
//
// Each pass:
// - Re-reads holds stuck in pending or requires_capture from the processor.
// - Reports escrowed milestones that were never transferred.
// - Prunes webhook event ids past the redelivery window.
type SweeperService struct {
	payments core.PaymentRepository
	syncer   core.PaymentSyncer
	stuck    core.StuckMilestoneFinder
	events   core.WebhookEventRepository
	config   config.SweeperConfig
	notifier *failurenotifier.Service
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	switch {
	case opts.Payments == nil:
		return nil, errors.New("PaymentRepository is required")
	case opts.Syncer == nil:
		return nil, errors.New("PaymentSyncer is required")
	case opts.Stuck == nil:
		return nil, errors.New("StuckMilestoneFinder is required")
	case opts.Events == nil:
		return nil, errors.New("WebhookEventRepository is required")
	}
	cfg := opts.Config
	cfg.Sanitize()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sweeper_service")
	logger.Debug("SweeperService initialized",
		"interval", cfg.Interval,
		"stale_after", cfg.StaleAfter,
		"batch_size", cfg.BatchSize,
		"webhook_retention", cfg.WebhookRetention,
	)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SweeperService{
		payments: opts.Payments,
		syncer:   opts.Syncer,
		stuck:    opts.Stuck,
		events:   opts.Events,
		config:   cfg,
		notifier: opts.Notifier,
		logger:   logger,
		metrics:  statsd.OrNop(opts.Metrics),
		now:      now,
	}, nil
}

// MustNewSweeperService constructs a SweeperService and panics on error.
func MustNewSweeperService(opts SweeperServiceOptions) *SweeperService {
	svc, err := NewSweeperService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SweeperService: %v", err))
	}
	return svc
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)

	// Spread instances that start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(ctx, err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(ctx, err, "sweep")
			}
		}
	}
}

// waitWithJitter sleeps for up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// SweepReport summarises one pass.
type SweepReport struct {
	Resynced     int
	SyncFailures int
	Stuck        []model.StuckMilestone
	EventsPruned int64
	Elapsed      time.Duration
}

// Sweep runs one pass. Steps are independent; a failure in one does not stop
// the others, and the joined error is returned alongside the partial report.
func (s *SweeperService) Sweep(ctx context.Context) (*SweepReport, error) {
	start := s.now()
	report := &SweepReport{}

	steps := []struct {
		label string
		fn    func(context.Context, *SweepReport) error
	}{
		{label: "resync stale holds", fn: s.resyncStaleHolds},
		{label: "report stuck milestones", fn: s.reportStuckMilestones},
		{label: "prune webhook events", fn: s.pruneWebhookEvents},
	}

	var errs []error
	for _, step := range steps {
		if err := step.fn(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
		}
	}
	report.Elapsed = s.now().Sub(start)

	err := errors.Join(errs...)
	s.emitSweepMetrics(report, err)
	if err != nil {
		return report, fmt.Errorf("sweep failed: %w", err)
	}
	return report, nil
}

// resyncStaleHolds re-reads holds a webhook should have settled by now. One
// unreachable hold does not stop the batch.
func (s *SweeperService) resyncStaleHolds(ctx context.Context, report *SweepReport) error {
	stale, err := s.payments.ListStale(ctx, model.StalePaymentQuery{
		Statuses:  []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusRequiresCapture},
		OlderThan: s.now().Add(-s.config.StaleAfter),
		Limit:     s.config.BatchSize,
	})
	if err != nil {
		return err
	}

	for _, p := range stale {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		synced, err := s.syncer.SyncPayment(ctx, p.PaymentIntentID)
		if err != nil {
			report.SyncFailures++
			s.logger.WarnContext(ctx, "stale hold re-sync failed",
				"payment_intent_id", p.PaymentIntentID,
				"job_id", p.JobID,
				"milestone_id", p.MilestoneID,
				"error", err,
			)
			continue
		}
		if synced != nil && synced.Status != p.Status {
			report.Resynced++
		}
	}

	if report.Resynced > 0 {
		s.metrics.Count(metrics.SweeperResynced, int64(report.Resynced), nil)
		s.logger.InfoContext(ctx, "re-synced stale holds", "count", report.Resynced, "scanned", len(stale))
	}
	return nil
}

// reportStuckMilestones alerts on escrowed milestones whose transfer was
// attempted and never paid. Milestones with no attempt are awaiting the client.
func (s *SweeperService) reportStuckMilestones(ctx context.Context, report *SweepReport) error {
	stuck, err := s.stuck.FindStuckMilestones(ctx)
	if err != nil {
		return err
	}
	report.Stuck = stuck

	var attempted int
	for i := range stuck {
		entry := &stuck[i]
		if entry.LastTransfer == nil {
			continue
		}
		attempted++
		s.logger.WarnContext(ctx, "escrowed milestone has no paid transfer",
			"job_id", entry.JobID,
			"milestone_id", entry.MilestoneID,
			"last_transfer_status", entry.LastTransfer.Status,
		)
		payload := notify.PaymentFailurePayload{
			Kind:        notify.KindStuckMilestone,
			JobID:       entry.JobID,
			MilestoneID: entry.MilestoneID,
			AccountID:   entry.LastTransfer.AccountID,
			Amount:      entry.Amount.StringFixed(2),
			Currency:    entry.LastTransfer.Currency,
			Severity:    notify.SeverityCritical,
			OccurredAt:  s.now(),
		}
		if entry.LastTransfer.FailureReason != nil {
			payload.Error = *entry.LastTransfer.FailureReason
		}
		s.notifier.NotifyPaymentFailure(ctx, payload)
	}
	s.metrics.Gauge(metrics.PartialFailures, float64(attempted), map[string]string{"kind": "stuck_milestone"})
	return nil
}

func (s *SweeperService) pruneWebhookEvents(ctx context.Context, report *SweepReport) error {
	n, err := s.events.Prune(ctx, s.config.WebhookRetention)
	if err != nil {
		return err
	}
	report.EventsPruned = n
	if n > 0 {
		s.metrics.Count(metrics.WebhookEventsGone, n, nil)
		s.logger.InfoContext(ctx, "pruned webhook events", "count", n, "retention", s.config.WebhookRetention)
	}
	return nil
}

func (s *SweeperService) emitSweepMetrics(report *SweepReport, err error) {
	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case report.Resynced == 0 && len(report.Stuck) == 0 && report.EventsPruned == 0:
		result = metrics.ResultNoop
	}
	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("sweeper.run", 1, tags)
	if report.Elapsed > 0 {
		s.metrics.Timing("sweeper.duration", report.Elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		s.metrics.Gauge("sweeper.last_success_epoch", float64(s.now().Unix()), nil)
	}
}

func (s *SweeperService) logSweepError(ctx context.Context, err error, label string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.DebugContext(ctx, label+" cancelled by context", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, label+" failed", "error", err)
}
