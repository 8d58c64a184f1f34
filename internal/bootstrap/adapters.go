package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/adapters/sweeper"
	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/observability/statsd"
	"github.com/target/escrow-api/internal/service/failurenotifier"
)

// SweeperConfig contains configuration for the ledger sweeper.
type SweeperConfig struct {
	DB       *sql.DB
	Logger   *slog.Logger
	Config   config.SweeperConfig
	Syncer   core.PaymentSyncer
	Stuck    core.StuckMilestoneFinder
	Notifier *failurenotifier.Service
	Metrics  statsd.Sink
}

// RunSweeper starts the sweeper loop and blocks until ctx is cancelled.
func RunSweeper(ctx context.Context, cfg SweeperConfig) error {
	runner, err := sweeper.NewRunner(sweeper.RunnerOptions{
		DB:       cfg.DB,
		Config:   cfg.Config,
		Logger:   cfg.Logger,
		Syncer:   cfg.Syncer,
		Stuck:    cfg.Stuck,
		Notifier: cfg.Notifier,
		Metrics:  cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create sweeper runner: %w", err)
	}

	return runner.Run(ctx)
}
