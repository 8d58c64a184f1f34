package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/escrow-api/internal/errors"
)

func TestParseRole(t *testing.T) {
	t.Parallel()
	r, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("guest")
	assert.False(t, ok)
}

func TestIdentity_Roles(t *testing.T) {
	t.Parallel()
	id := Identity{UserID: "u1", Roles: []Role{RoleClient}}
	assert.True(t, id.HasRole(RoleClient))
	assert.False(t, id.IsAdmin())
	assert.True(t, id.HasAnyRole(RoleTalent, RoleClient))
	assert.False(t, id.HasAnyRole(RoleTalent))
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	client := &Identity{UserID: "client-1", Roles: []Role{RoleClient}}
	otherClient := &Identity{UserID: "client-2", Roles: []Role{RoleClient}}
	talent := &Identity{UserID: "talent-1", Roles: []Role{RoleTalent}}
	admin := &Identity{UserID: "ops", Roles: []Role{RoleAdmin}}

	ownerOnly := Requirement{Action: "review milestone", AnyOf: []Role{RoleClient}, Owner: Owns("client-1")}

	tests := []struct {
		name    string
		id      *Identity
		req     Requirement
		wantErr func(error) bool
	}{
		{name: "owner passes", id: client, req: ownerOnly},
		{name: "nil identity", id: nil, req: ownerOnly, wantErr: apperrors.IsUnauthorized},
		{name: "wrong role", id: talent, req: ownerOnly, wantErr: apperrors.IsForbidden},
		{name: "not owner", id: otherClient, req: ownerOnly, wantErr: apperrors.IsForbidden},
		{name: "admin without bypass", id: admin, req: ownerOnly, wantErr: apperrors.IsForbidden},
		{
			name: "admin with bypass",
			id:   admin,
			req:  Requirement{Action: "cancel milestone", AnyOf: []Role{RoleClient}, Owner: Owns("client-1"), AdminBypass: true},
		},
		{name: "role only", id: talent, req: Requirement{Action: "apply", AnyOf: []Role{RoleTalent}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Authorize(tt.id, tt.req)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error %v", err)
		})
	}
}

func TestOwns_EmptyUserNeverMatches(t *testing.T) {
	t.Parallel()
	assert.False(t, Owns("")(Identity{UserID: ""}))
}
