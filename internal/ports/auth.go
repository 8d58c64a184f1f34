package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/escrow-api/internal/domain/auth"
)

// TokenVerifier validates a bearer token issued by the identity provider and
// returns the caller it names. The service never issues production tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (domainauth.Identity, error)
}

// RoleMapper maps a verified token's claims to application roles.
type RoleMapper interface {
	Map(claims map[string]any) []domainauth.Role
}
