package auth

// Package auth contains domain-level types for caller identity and authorization.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"strings"
	"time"
)

// Role represents an application's authorization role carried in the bearer token.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleTalent Role = "talent"
)

// ParseRole normalizes a role claim value and reports whether it is known.
func ParseRole(v string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	switch r {
	case RoleAdmin, RoleClient, RoleTalent:
		return r, true
	default:
		return "", false
	}
}

// Identity is the verified caller. Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Roles     []Role    `json:"roles"`
	ExpiresAt time.Time `json:"exp"`
}

// HasRole reports whether the identity carries r.
func (i Identity) HasRole(r Role) bool {
	return slices.Contains(i.Roles, r)
}

// HasAnyRole reports whether the identity carries at least one of roles.
func (i Identity) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if i.HasRole(r) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.HasRole(RoleAdmin) }
