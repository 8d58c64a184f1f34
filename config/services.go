package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSweeper runs the ledger sweeper.
	ServiceModeSweeper ServiceMode = "sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeSweeper}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, sweeper)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// PaymentsConfig tunes the payment orchestrator and milestone writes.
type PaymentsConfig struct {
	// Currency is used when a hold request does not name one.
	Currency string `env:"PAYMENTS_CURRENCY" envDefault:"usd"`

	// ClaimTTL bounds how long an in-flight processor call holds its idempotency claim.
	ClaimTTL time.Duration `env:"PAYMENTS_CLAIM_TTL" envDefault:"30s"`

	// MutateAttempts is how many times a job write is retried on a version conflict.
	MutateAttempts int `env:"PAYMENTS_MUTATE_ATTEMPTS" envDefault:"3"`
}

// Sanitize applies guardrails to payment configuration values.
func (p *PaymentsConfig) Sanitize() {
	p.Currency = strings.ToLower(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = "usd"
	}
	if p.ClaimTTL < 5*time.Second {
		p.ClaimTTL = 5 * time.Second
	}
	if p.ClaimTTL > 5*time.Minute {
		p.ClaimTTL = 5 * time.Minute
	}
	if p.MutateAttempts < 1 {
		p.MutateAttempts = 1
	}
	if p.MutateAttempts > 10 {
		p.MutateAttempts = 10
	}
}

// SweeperConfig contains ledger sweeper configuration.
type SweeperConfig struct {
	// Interval is how often the sweeper runs.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"5m"`

	// StaleAfter is how long a hold may sit in pending/requires_capture before it is re-synced.
	StaleAfter time.Duration `env:"SWEEPER_STALE_AFTER" envDefault:"30m"`

	// BatchSize is the maximum number of payments re-synced per tick.
	BatchSize int `env:"SWEEPER_BATCH_SIZE" envDefault:"100"`

	// WebhookRetention is how long processed webhook event ids are kept for dedupe.
	WebhookRetention time.Duration `env:"SWEEPER_WEBHOOK_RETENTION" envDefault:"720h"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	if s.Interval < 30*time.Second {
		s.Interval = 30 * time.Second
	}
	if s.StaleAfter < 5*time.Minute {
		s.StaleAfter = 5 * time.Minute
	}
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	if s.BatchSize > 1000 {
		s.BatchSize = 1000
	}
	// Stripe retries webhooks for up to three days.
	if s.WebhookRetention < 72*time.Hour {
		s.WebhookRetention = 72 * time.Hour
	}
}
