package config

import (
	"strings"
	"time"
)

// ProcessorConfig configures the Stripe client and webhook verification.
type ProcessorConfig struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	// BaseURL overrides the API endpoint (stripe-mock in local stacks).
	BaseURL            string        `env:"BASE_URL"`
	Timeout            time.Duration `env:"TIMEOUT"             envDefault:"15s"`
	SignatureTolerance time.Duration `env:"SIGNATURE_TOLERANCE" envDefault:"5m"`
}

// Sanitize applies guardrails to processor configuration values.
func (p *ProcessorConfig) Sanitize() {
	p.SecretKey = strings.TrimSpace(p.SecretKey)
	p.WebhookSecret = strings.TrimSpace(p.WebhookSecret)
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	if p.Timeout <= 0 || p.Timeout > time.Minute {
		p.Timeout = 15 * time.Second
	}
	if p.SignatureTolerance <= 0 {
		p.SignatureTolerance = 5 * time.Minute
	}
}

// DirectoryConfig configures the user directory client.
type DirectoryConfig struct {
	BaseURL  string        `env:"BASE_URL" envDefault:"http://localhost:8081"`
	Timeout  time.Duration `env:"TIMEOUT"  envDefault:"5s"`
	Attempts int           `env:"ATTEMPTS" envDefault:"3"`

	// OAuth2 client-credentials; left empty the directory is called unauthenticated.
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	TokenURL     string   `env:"TOKEN_URL"`
	Scopes       []string `env:"SCOPES"        envSeparator:" "`
}

// Sanitize applies guardrails to directory configuration values.
func (d *DirectoryConfig) Sanitize() {
	d.BaseURL = strings.TrimRight(strings.TrimSpace(d.BaseURL), "/")
	if d.Timeout <= 0 {
		d.Timeout = 5 * time.Second
	}
	if d.Attempts < 1 {
		d.Attempts = 1
	}
	if d.Attempts > 5 {
		d.Attempts = 5
	}
}
