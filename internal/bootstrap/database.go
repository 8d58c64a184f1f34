package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/migrate"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB opens and pings the ledger database.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	pg := cfg.DBConfig
	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := pg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(maxOpen/5, 1))
	if pg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), orDefault(pg.ConnectTimeout, 5*time.Second))
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", pg.Host,
			"port", pg.Port,
			"database", pg.Name,
			"max_open_conns", maxOpen,
		)
	}
	return db, nil
}

// ConnectRedis opens and pings the claim store. The topology follows
// config.RedisConfig.
//
//nolint:ireturn // single, sentinel or cluster is only known at runtime.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), orDefault(cfg.RedisConfig.DialTimeout, 5*time.Second))
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), client.Close())
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected",
			"topology", redisTopology(opts),
			"addrs", strings.Join(opts.Addrs, ","),
		)
	}
	return client, nil
}

// redisOptions maps config onto go-redis' universal options. A URL is parsed
// with redis.ParseURL so credentials and TLS come from it.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	if u := strings.TrimSpace(cfg.URL); u != "" {
		parsed, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return &redis.UniversalOptions{
			Addrs:       []string{parsed.Addr},
			Username:    parsed.Username,
			Password:    parsed.Password,
			DB:          parsed.DB,
			TLSConfig:   parsed.TLSConfig,
			DialTimeout: cfg.DialTimeout,
		}, nil
	}

	addrs := make([]string, 0, len(cfg.Addrs))
	for _, a := range cfg.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("redis: REDIS_URL or REDIS_ADDRS is required")
	}
	return &redis.UniversalOptions{
		Addrs:            addrs,
		Username:         cfg.Username,
		Password:         cfg.Password,
		DB:               cfg.DB,
		MasterName:       cfg.MasterName,
		SentinelPassword: cfg.SentinelPassword,
		DialTimeout:      cfg.DialTimeout,
	}, nil
}

func redisTopology(opts *redis.UniversalOptions) string {
	switch {
	case opts.MasterName != "":
		return "sentinel"
	case len(opts.Addrs) > 1:
		return "cluster"
	default:
		return "single"
	}
}

// RunMigrations applies the embedded escrow schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
