// Package oidc verifies bearer tokens issued by an external OIDC identity provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/ports"
)

// Verifier implements ports.TokenVerifier with go-oidc. Signatures are checked
// against the issuer's published JWKS; audience must match Audience.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
	mapper   ports.RoleMapper
}

// VerifierConfig holds configuration for the OIDC verifier.
type VerifierConfig struct {
	IssuerURL  string
	Audience   string
	Mapper     ports.RoleMapper
	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// NewVerifier discovers the issuer and builds a verifier.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if cfg.Mapper == nil {
		return nil, errors.New("role mapper is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// go-oidc picks the HTTP client for discovery and JWKS fetches from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Verifier{
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.Audience}),
		mapper:   cfg.Mapper,
	}, nil
}

// NewVerifierFromKeySet builds a verifier against a fixed key set, bypassing discovery.
func NewVerifierFromKeySet(issuer string, keys gooidc.KeySet, cfg VerifierConfig) *Verifier {
	return &Verifier{
		verifier: gooidc.NewVerifier(issuer, keys, &gooidc.Config{ClientID: cfg.Audience}),
		mapper:   cfg.Mapper,
	}
}

// Verify checks the token and maps its claims to an identity.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (domainauth.Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return domainauth.Identity{}, errors.New("empty token")
	}
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify token: %w", err)
	}

	var claims map[string]any
	if claimsErr := tok.Claims(&claims); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("parse claims: %w", claimsErr)
	}
	if tok.Subject == "" {
		return domainauth.Identity{}, errors.New("token has no subject")
	}

	email, _ := claims["email"].(string)
	return domainauth.Identity{
		UserID:    tok.Subject,
		Email:     email,
		Roles:     v.mapper.Map(claims),
		ExpiresAt: tok.Expiry,
	}, nil
}
