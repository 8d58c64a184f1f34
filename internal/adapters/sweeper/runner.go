// Package sweeper provides adapters for running the ledger sweeper.
package sweeper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/data"
	"github.com/target/escrow-api/internal/observability/statsd"
	"github.com/target/escrow-api/internal/service"
	"github.com/target/escrow-api/internal/service/failurenotifier"
)

// Runner constructs the sweeper service and runs its loop.
type Runner struct {
	sweeper *service.SweeperService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB       *sql.DB
	Config   config.SweeperConfig
	Logger   *slog.Logger
	Syncer   core.PaymentSyncer
	Stuck    core.StuckMilestoneFinder
	Notifier *failurenotifier.Service
	Metrics  statsd.Sink

	// Optional overrides; built from DB when nil.
	Payments core.PaymentRepository
	Events   core.WebhookEventRepository
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	svc, err := service.NewSweeperService(service.SweeperServiceOptions{
		Payments: opts.Payments,
		Syncer:   opts.Syncer,
		Stuck:    opts.Stuck,
		Events:   opts.Events,
		Config:   opts.Config,
		Notifier: opts.Notifier,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{sweeper: svc, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Syncer == nil || opts.Stuck == nil {
		return errors.New("payment syncer and stuck milestone finder are required")
	}
	if opts.Payments == nil || opts.Events == nil {
		if opts.DB == nil {
			return errors.New("database connection is required")
		}
		if opts.Payments == nil {
			opts.Payments = data.NewPaymentRepo(opts.DB)
		}
		if opts.Events == nil {
			opts.Events = data.NewWebhookEventRepo(opts.DB)
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the sweeper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper runner")
	return r.sweeper.Run(ctx)
}
