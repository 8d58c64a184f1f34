package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/adapters/authroles"
	"github.com/target/escrow-api/internal/adapters/devauth"
	"github.com/target/escrow-api/internal/adapters/oidc"
	domainauth "github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/ports"
)

// AuthConfig contains configuration for the bearer token verifier.
type AuthConfig struct {
	Auth   config.AuthConfig
	IsDev  bool
	Logger *slog.Logger
}

// BuildTokenVerifier creates the token verifier for the configured auth mode.
//
//nolint:ireturn // the HTTP layer depends on the port, not a concrete verifier.
func BuildTokenVerifier(ctx context.Context, cfg AuthConfig) (ports.TokenVerifier, error) {
	if err := cfg.Auth.Validate(cfg.IsDev); err != nil {
		return nil, err
	}

	mapper, err := buildRoleMapper(cfg.Auth)
	if err != nil {
		return nil, err
	}

	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		if cfg.Logger != nil {
			cfg.Logger.Warn("dev auth enabled; tokens are verified with a shared secret")
		}
		v, err := devauth.NewVerifier(devauth.Config{
			Secret: cfg.Auth.Dev.Secret,
			Issuer: cfg.Auth.Dev.Issuer,
			Mapper: mapper,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev verifier: %w", err)
		}
		return v, nil

	case config.AuthModeOIDC:
		v, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL: cfg.Auth.OIDC.IssuerURL,
			Audience:  cfg.Auth.OIDC.Audience,
			Mapper:    mapper,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc verifier: %w", err)
		}
		return v, nil

	default:
		return nil, errors.New("no token verifier for auth mode " + string(cfg.Auth.Mode))
	}
}

func buildRoleMapper(cfg config.AuthConfig) (*authroles.ClaimsRoleMapper, error) {
	aliases := make(map[string]domainauth.Role, len(cfg.RoleAliases))
	for group, role := range cfg.RoleAliases {
		r := domainauth.Role(role)
		switch r {
		case domainauth.RoleAdmin, domainauth.RoleClient, domainauth.RoleTalent:
			aliases[group] = r
		default:
			return nil, fmt.Errorf("AUTH_ROLE_ALIASES: unknown role %q for %q", role, group)
		}
	}
	mapper, err := authroles.NewClaimsRoleMapper(cfg.RolesClaim, aliases)
	if err != nil {
		return nil, fmt.Errorf("create role mapper: %w", err)
	}
	return mapper, nil
}
