package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/escrow-api/internal/domain/auth"
)

func TestClaimsRoleMapper_Map(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		aliases map[string]domainauth.Role
		claims  map[string]any
		want    []domainauth.Role
	}{
		{
			name:   "top level array",
			claims: map[string]any{"roles": []any{"client", "talent", "unknown"}},
			want:   []domainauth.Role{domainauth.RoleClient, domainauth.RoleTalent},
		},
		{
			name:   "nested keycloak shape",
			expr:   "realm_access.roles",
			claims: map[string]any{"realm_access": map[string]any{"roles": []any{"ADMIN"}}},
			want:   []domainauth.Role{domainauth.RoleAdmin},
		},
		{
			name:   "space separated string",
			expr:   "scope_roles",
			claims: map[string]any{"scope_roles": "talent client talent"},
			want:   []domainauth.Role{domainauth.RoleTalent, domainauth.RoleClient},
		},
		{
			name:    "alias from group dn",
			expr:    "groups",
			aliases: map[string]domainauth.Role{"CN=Escrow-Ops,OU=Groups": domainauth.RoleAdmin},
			claims:  map[string]any{"groups": []any{"cn=escrow-ops,ou=groups"}},
			want:    []domainauth.Role{domainauth.RoleAdmin},
		},
		{
			name:   "missing claim",
			claims: map[string]any{"sub": "u1"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := NewClaimsRoleMapper(tt.expr, tt.aliases)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Map(tt.claims))
		})
	}
}

func TestNewClaimsRoleMapper_InvalidExpression(t *testing.T) {
	t.Parallel()
	_, err := NewClaimsRoleMapper("roles[", nil)
	require.Error(t, err)
}
