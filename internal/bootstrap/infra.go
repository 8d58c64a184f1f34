package bootstrap

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/escrow-api/config"
)

// Infra holds the stores every escrow process needs: the Postgres ledger and
// the Redis claim store.
type Infra struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// OpenInfra connects Postgres, then Redis. A Redis failure closes the
// already-open database.
func OpenInfra(cfg *config.AppConfig, logger *slog.Logger) (*Infra, error) {
	db, err := ConnectDB(DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	rdb, err := ConnectRedis(DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		closeLogged(logger, "database", db)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Infra{DB: db, Redis: rdb}, nil
}

// Close releases both connections, logging failures.
func (i *Infra) Close(logger *slog.Logger) {
	if i == nil {
		return
	}
	if i.Redis != nil {
		closeLogged(logger, "redis", i.Redis)
	}
	if i.DB != nil {
		closeLogged(logger, "database", i.DB)
	}
}

func closeLogged(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil && logger != nil {
		logger.Warn("close failed", "resource", name, "error", err)
	}
}
