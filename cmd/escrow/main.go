// Command escrow runs the escrow API and the stuck-milestone sweeper.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/bootstrap"
)

func main() {
	logger := bootstrap.InitLogger()
	if err := run(context.Background(), logger); err != nil {
		logger.Error("escrow exited", "error", err)
		os.Exit(1) //nolint:forbidigo // process entrypoint
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.ConfigureLogger(&cfg)
	if err := bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}
	announce(ctx, logger, &cfg)

	infra, err := bootstrap.OpenInfra(&cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close(logger)

	if cfg.Postgres.RunMigrationsOnStart {
		if err := bootstrap.RunMigrations(ctx, infra.DB, logger); err != nil {
			return err
		}
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          infra.DB,
		RedisClient: infra.Redis,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		DB:       infra.DB,
		Logger:   logger,
	})
}

func announce(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "escrow starting",
		"services", bootstrap.GetEnabledServices(cfg),
		"auth_mode", cfg.Auth.Mode,
		"dev", cfg.IsDev,
		"migrate_on_start", cfg.Postgres.RunMigrationsOnStart,
		"metrics", cfg.Metrics.Enabled(),
	)
}
