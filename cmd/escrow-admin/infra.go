package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/target/escrow-api/internal/bootstrap"
)

// connectDB opens the ledger database alone, for read-only commands.
func connectDB(cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cmdCtx.Config.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

// serviceDeps is what commands that drive services hold open.
type serviceDeps struct {
	*bootstrap.Infra
	Services bootstrap.ServiceContainer
}

// connectServices wires the services the API runs. Only the sweeper mode is
// enabled so neither a token verifier nor a webhook secret is needed.
func connectServices(ctx context.Context, cmdCtx *commandContext) (*serviceDeps, error) {
	cfg := cmdCtx.Config
	cfg.Services = "sweeper"

	infra, err := bootstrap.OpenInfra(&cfg, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          infra.DB,
		RedisClient: infra.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		infra.Close(cmdCtx.Logger)
		return nil, err
	}
	return &serviceDeps{Infra: infra, Services: services}, nil
}

func closeQuietly(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil && logger != nil {
		logger.Warn(name+" close failed", "error", err)
	}
}
