package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// DBConfig holds the ledger database settings (DB_*).
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"escrow"`
	Password string `env:"PASSWORD" envDefault:"escrow"`
	Name     string `env:"NAME"     envDefault:"escrow"`
	// SSLMode is passed straight to pgx; production should use "require" or stricter.
	SSLMode string `env:"SSL_MODE" envDefault:"disable"`

	// MaxOpenConns caps the pool; idle connections are a fifth of it.
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"     envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"  envDefault:"5m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT"    envDefault:"5s"`

	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders a pgx URL. Credentials are escaped.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds the idempotency claim store settings (REDIS_*). Redis
// only holds short-lived claims, so losing it never loses ledger state.
//
// URL wins when set (redis:// or rediss://). Otherwise one address gives a
// single node, MasterName switches to sentinel and several addresses without
// a master name form a cluster.
type RedisConfig struct {
	URL        string   `env:"URL"`
	Addrs      []string `env:"ADDRS"       envDefault:"localhost:6379"`
	Username   string   `env:"USERNAME"`
	Password   string   `env:"PASSWORD"`
	DB         int      `env:"DB"          envDefault:"0"`
	MasterName string   `env:"MASTER_NAME"`
	// SentinelPassword authenticates against the sentinels, not the master.
	SentinelPassword string        `env:"SENTINEL_PASSWORD"`
	DialTimeout      time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}
