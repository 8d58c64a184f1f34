package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
		},
		{
			name:  "single service - sweeper",
			input: "sweeper",
			expected: map[ServiceMode]bool{
				ServiceModeSweeper: true,
			},
		},
		{
			name:  "all services with spaces",
			input: " http , sweeper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,sweeper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:  "trailing comma",
			input: "http,",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,,",
			expectError: true,
		},
		{
			name:        "unknown service",
			input:       "http,scheduler",
			expectError: true,
		},
		{
			name:        "case sensitive",
			input:       "HTTP",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for input %q, but got none", tt.input)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error for input %q: %v", tt.input, err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name        string
		services    string
		wantHTTP    bool
		wantSweeper bool
	}{
		{name: "http only", services: "http", wantHTTP: true},
		{name: "sweeper only", services: "sweeper", wantSweeper: true},
		{name: "both", services: "sweeper,http", wantHTTP: true, wantSweeper: true},
		{name: "invalid disables everything", services: "http,bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{Services: tt.services}
			if got := cfg.IsHTTPServerEnabled(); got != tt.wantHTTP {
				t.Errorf("IsHTTPServerEnabled() = %v, want %v", got, tt.wantHTTP)
			}
			if got := cfg.IsSweeperEnabled(); got != tt.wantSweeper {
				t.Errorf("IsSweeperEnabled() = %v, want %v", got, tt.wantSweeper)
			}
		})
	}
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	expected := []ServiceMode{ServiceModeHTTP, ServiceModeSweeper}

	if !reflect.DeepEqual(modes, expected) {
		t.Fatalf("expected %v, got %v", expected, modes)
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Services != "http" {
		t.Errorf("expected default services http, got %q", cfg.Services)
	}
	if cfg.Auth.Mode != AuthModeOIDC {
		t.Errorf("expected default auth mode oidc, got %q", cfg.Auth.Mode)
	}
	if cfg.Payments.Currency != "usd" || cfg.Payments.ClaimTTL != 30*time.Second || cfg.Payments.MutateAttempts != 3 {
		t.Errorf("unexpected payment defaults: %+v", cfg.Payments)
	}
	if cfg.HTTP.MaxBodyBytes != 1<<20 {
		t.Errorf("expected 1MiB body limit, got %d", cfg.HTTP.MaxBodyBytes)
	}
	if cfg.Processor.SignatureTolerance != 5*time.Minute {
		t.Errorf("expected 5m signature tolerance, got %v", cfg.Processor.SignatureTolerance)
	}
	if cfg.Postgres.Name != "escrow" {
		t.Errorf("expected escrow database name, got %q", cfg.Postgres.Name)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("OIDC_ISSUER_URL", "https://login.example.com")
	t.Setenv("OIDC_AUDIENCE", "escrow")
	t.Setenv("DEV_AUTH_SECRET", "0123456789abcdef")
	t.Setenv("DEV_AUTH_ISSUER", "local")
	t.Setenv("AUTH_ROLES_CLAIM", "realm_access.roles")
	t.Setenv("AUTH_ROLE_ALIASES", "escrow-ops:admin,buyers:client")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeDev,
		OIDC: OIDCConfig{
			IssuerURL: "https://login.example.com",
			Audience:  "escrow",
		},
		Dev: DevAuthConfig{
			Secret: "0123456789abcdef",
			Issuer: "local",
		},
		RolesClaim:  "realm_access.roles",
		RoleAliases: map[string]string{"escrow-ops": "admin", "buyers": "client"},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAppConfig_InvalidAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected error for unknown auth mode")
	}
}

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		isDev   bool
		wantErr bool
	}{
		{name: "oidc with issuer", cfg: AuthConfig{Mode: AuthModeOIDC, OIDC: OIDCConfig{IssuerURL: "https://idp"}}},
		{name: "oidc without issuer", cfg: AuthConfig{Mode: AuthModeOIDC}, wantErr: true},
		{name: "dev in dev mode", cfg: AuthConfig{Mode: AuthModeDev, Dev: DevAuthConfig{Secret: "0123456789abcdef"}}, isDev: true},
		{name: "dev outside dev mode", cfg: AuthConfig{Mode: AuthModeDev, Dev: DevAuthConfig{Secret: "0123456789abcdef"}}, wantErr: true},
		{name: "dev short secret", cfg: AuthConfig{Mode: AuthModeDev, Dev: DevAuthConfig{Secret: "short"}}, isDev: true, wantErr: true},
		{name: "unset mode", cfg: AuthConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.isDev)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("APP_ENV", "Development")

	cfg := AppConfig{Services: "http"}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Fatal("expected APP_ENV=development to enable dev mode")
	}
}

func TestPaymentsConfig_Sanitize(t *testing.T) {
	cfg := PaymentsConfig{Currency: " EUR ", ClaimTTL: time.Second, MutateAttempts: 0}
	cfg.Sanitize()

	if cfg.Currency != "eur" {
		t.Errorf("expected normalised currency, got %q", cfg.Currency)
	}
	if cfg.ClaimTTL != 5*time.Second {
		t.Errorf("expected claim ttl floor, got %v", cfg.ClaimTTL)
	}
	if cfg.MutateAttempts != 1 {
		t.Errorf("expected at least one attempt, got %d", cfg.MutateAttempts)
	}

	cfg = PaymentsConfig{ClaimTTL: time.Hour, MutateAttempts: 50}
	cfg.Sanitize()
	if cfg.Currency != "usd" || cfg.ClaimTTL != 5*time.Minute || cfg.MutateAttempts != 10 {
		t.Errorf("unexpected clamped values: %+v", cfg)
	}
}

func TestSweeperConfig_Sanitize(t *testing.T) {
	cfg := SweeperConfig{Interval: time.Second, StaleAfter: 0, BatchSize: 5000, WebhookRetention: time.Hour}
	cfg.Sanitize()

	if cfg.Interval != 30*time.Second {
		t.Errorf("expected interval floor, got %v", cfg.Interval)
	}
	if cfg.StaleAfter != 5*time.Minute {
		t.Errorf("expected stale-after floor, got %v", cfg.StaleAfter)
	}
	if cfg.BatchSize != 1000 {
		t.Errorf("expected batch size ceiling, got %d", cfg.BatchSize)
	}
	if cfg.WebhookRetention != 72*time.Hour {
		t.Errorf("expected retention floor, got %v", cfg.WebhookRetention)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{MaxBodyBytes: 10}
	cfg.Sanitize()

	if cfg.MaxBodyBytes != minBodyBytes {
		t.Errorf("expected body floor, got %d", cfg.MaxBodyBytes)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.IdleTimeout != 120*time.Second {
		t.Errorf("expected default timeouts, got %+v", cfg)
	}
}

func TestDirectoryConfig_Sanitize(t *testing.T) {
	cfg := DirectoryConfig{BaseURL: " https://users.example/ ", Attempts: 99}
	cfg.Sanitize()

	if cfg.BaseURL != "https://users.example" {
		t.Errorf("expected trimmed base url, got %q", cfg.BaseURL)
	}
	if cfg.Attempts != 5 {
		t.Errorf("expected attempts ceiling, got %d", cfg.Attempts)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
}

func TestMetricsConfig_Sanitize(t *testing.T) {
	cfg := MetricsConfig{StatsdAddr: " ", Prefix: ".payments.", Tags: map[string]string{" env ": " prod ", "": "x"}}
	cfg.Sanitize()

	if cfg.Enabled() {
		t.Fatal("expected metrics off without an address")
	}
	if cfg.Prefix != "payments" {
		t.Fatalf("expected trimmed prefix, got %q", cfg.Prefix)
	}
	if len(cfg.Tags) != 1 || cfg.Tags["env"] != "prod" {
		t.Fatalf("unexpected tags %v", cfg.Tags)
	}

	cfg = MetricsConfig{StatsdAddr: " statsd:8125 "}
	cfg.Sanitize()
	if !cfg.Enabled() || cfg.StatsdAddr != "statsd:8125" || cfg.Prefix != "escrow" {
		t.Fatalf("unexpected metrics config %+v", cfg)
	}
}

func TestAlertsConfig_Sanitize(t *testing.T) {
	cfg := AlertsConfig{
		Attempts:  0,
		Cooldown:  -time.Minute,
		Slack:     SlackAlertConfig{WebhookURL: "  "},
		PagerDuty: PagerDutyAlertConfig{RoutingKey: " key "},
	}
	cfg.Sanitize()

	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.Attempts != 1 {
		t.Fatalf("expected attempts floor of 1, got %d", cfg.Attempts)
	}
	if cfg.Cooldown != 0 {
		t.Fatalf("expected negative cooldown cleared, got %v", cfg.Cooldown)
	}
	if cfg.Slack.Enabled() {
		t.Fatal("expected slack off with a blank webhook")
	}
	if !cfg.PagerDuty.Enabled() || cfg.PagerDuty.RoutingKey != "key" {
		t.Fatalf("expected trimmed routing key, got %q", cfg.PagerDuty.RoutingKey)
	}

	cfg = AlertsConfig{Attempts: 50}
	cfg.Sanitize()
	if cfg.Attempts != 10 {
		t.Fatalf("expected attempts ceiling, got %d", cfg.Attempts)
	}
}
