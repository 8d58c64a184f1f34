package auth

import (
	apperrors "github.com/target/escrow-api/internal/errors"
)

// Requirement describes who may perform an action. A caller passes when it
// holds one of AnyOf (or AnyOf is empty) and, if Owner is set, Owner accepts
// it. AdminBypass lets admins skip both checks.
type Requirement struct {
	Action      string
	AnyOf       []Role
	Owner       func(Identity) bool
	AdminBypass bool
}

// Authorize is the single capability check applied before every mutating
// operation. It returns nil, an unauthorized error for a missing identity, or
// a forbidden error naming the action.
func Authorize(id *Identity, req Requirement) error {
	if id == nil || id.UserID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	if req.AdminBypass && id.IsAdmin() {
		return nil
	}
	if len(req.AnyOf) > 0 && !id.HasAnyRole(req.AnyOf...) {
		return apperrors.Forbiddenf("%s requires role %s", req.Action, joinRoles(req.AnyOf))
	}
	if req.Owner != nil && !req.Owner(*id) {
		return apperrors.Forbiddenf("%s is limited to the resource owner", req.Action)
	}
	return nil
}

// Owns is an Owner predicate matching a fixed user id.
func Owns(userID string) func(Identity) bool {
	return func(id Identity) bool { return userID != "" && id.UserID == userID }
}

func joinRoles(roles []Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
