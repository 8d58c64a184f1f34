package config

import (
	"fmt"
	"strings"
)

// AuthMode selects how bearer tokens are verified.
type AuthMode string

const (
	// AuthModeOIDC verifies tokens against an OpenID Connect issuer.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeDev verifies locally signed HS256 tokens (development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, dev)", v)
	}
}

// OIDCConfig contains the token issuer settings.
type OIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	Audience  string `env:"AUDIENCE"   envDefault:"escrow-api"`
}

// DevAuthConfig controls the dev HS256 verifier and the admin CLI's dev-token command.
type DevAuthConfig struct {
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER" envDefault:"escrow-dev"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	OIDC OIDCConfig    `envPrefix:"OIDC_"`
	Dev  DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// RolesClaim is a JMESPath expression selecting role names from token claims.
	RolesClaim string `env:"AUTH_ROLES_CLAIM" envDefault:"roles"`

	// RoleAliases maps provider group names to roles, e.g. "escrow-ops:admin,buyers:client".
	RoleAliases map[string]string `env:"AUTH_ROLE_ALIASES" envSeparator:"," envKeyValSeparator:":"`
}

// Validate reports configuration that cannot produce a working verifier.
func (a *AuthConfig) Validate(isDev bool) error {
	switch a.Mode {
	case AuthModeOIDC:
		if strings.TrimSpace(a.OIDC.IssuerURL) == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when AUTH_MODE=oidc")
		}
	case AuthModeDev:
		if !isDev {
			return fmt.Errorf("AUTH_MODE=dev is only allowed when DEV=true")
		}
		if len(a.Dev.Secret) < 16 {
			return fmt.Errorf("DEV_AUTH_SECRET must be at least 16 bytes")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", a.Mode)
	}
	return nil
}
