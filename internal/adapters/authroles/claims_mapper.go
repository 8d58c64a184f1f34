package authroles

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/target/escrow-api/internal/domain/auth"
)

// DefaultRolesExpression reads a top-level "roles" claim.
const DefaultRolesExpression = "roles"

// ClaimsRoleMapper extracts roles from token claims with a JMESPath expression,
// e.g. "roles" or "realm_access.roles". Aliases map provider role names
// (such as group DNs) onto application roles.
type ClaimsRoleMapper struct {
	expr    string
	aliases map[string]domainauth.Role
}

// NewClaimsRoleMapper compiles expression; empty falls back to DefaultRolesExpression.
func NewClaimsRoleMapper(expression string, aliases map[string]domainauth.Role) (*ClaimsRoleMapper, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = DefaultRolesExpression
	}
	if _, err := jmespath.Compile(expression); err != nil {
		return nil, fmt.Errorf("compile roles expression %q: %w", expression, err)
	}
	normalized := make(map[string]domainauth.Role, len(aliases))
	for k, v := range aliases {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &ClaimsRoleMapper{expr: expression, aliases: normalized}, nil
}

// Map returns the known roles found in claims. Unknown values are dropped.
func (m *ClaimsRoleMapper) Map(claims map[string]any) []domainauth.Role {
	if m == nil || claims == nil {
		return nil
	}
	found, err := jmespath.Search(m.expr, claims)
	if err != nil || found == nil {
		return nil
	}

	var raw []string
	switch v := found.(type) {
	case string:
		raw = strings.Fields(strings.ReplaceAll(v, ",", " "))
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	}

	seen := make(map[domainauth.Role]struct{}, len(raw))
	var roles []domainauth.Role
	for _, name := range raw {
		role, ok := m.resolve(name)
		if !ok {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

func (m *ClaimsRoleMapper) resolve(name string) (domainauth.Role, bool) {
	if role, ok := m.aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return role, true
	}
	return domainauth.ParseRole(name)
}
