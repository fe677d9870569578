// Package authroles maps SSO identities to role labels.
package authroles

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var (
	_ ports.RoleMapper = GroupMapper{}
	_ ports.RoleMapper = (*ClaimExprMapper)(nil)
	_ ports.RoleMapper = Chain{}
)

// GroupRule assigns Role to members of Group.
type GroupRule struct {
	Group string
	Role  domainauth.Role
}

// GroupMapper assigns the role of the first rule whose group the identity belongs to.
// Rule order is priority order.
type GroupMapper struct {
	Rules   []GroupRule
	Default domainauth.Role
}

// ParseGroupRules parses "group=Role,group2=Role2". Group names are matched exactly.
func ParseGroupRules(s string) ([]GroupRule, error) {
	var rules []GroupRule
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		group, role, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(group) == "" {
			return nil, fmt.Errorf("invalid group rule %q: want group=Role", part)
		}
		r, err := domainauth.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("invalid group rule %q: %w", part, err)
		}
		rules = append(rules, GroupRule{Group: strings.TrimSpace(group), Role: r})
	}
	return rules, nil
}

func (m GroupMapper) Map(id domainauth.Identity) domainauth.Role {
	for _, rule := range m.Rules {
		for _, g := range id.Groups {
			if g == rule.Group {
				return rule.Role
			}
		}
	}
	return m.Default
}

// ClaimExprMapper evaluates a JMESPath expression over the raw ID token claims.
// A string result is the role; for an array result the first non-blank string wins.
type ClaimExprMapper struct {
	expr string
}

// NewClaimExprMapper compiles expr up front so configuration errors surface at startup.
func NewClaimExprMapper(expr string) (*ClaimExprMapper, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("role expression is empty")
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile role expression: %w", err)
	}
	return &ClaimExprMapper{expr: expr}, nil
}

func (m *ClaimExprMapper) Map(id domainauth.Identity) domainauth.Role {
	if len(id.Claims) == 0 {
		return ""
	}
	out, err := jmespath.Search(m.expr, id.Claims)
	if err != nil {
		return ""
	}
	switch v := out.(type) {
	case string:
		r, _ := domainauth.ParseRole(v)
		return r
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if r, err := domainauth.ParseRole(s); err == nil {
					return r
				}
			}
		}
	}
	return ""
}

// Chain returns the first non-empty role from its mappers.
type Chain []ports.RoleMapper

func (c Chain) Map(id domainauth.Identity) domainauth.Role {
	for _, m := range c {
		if r := m.Map(id); r != "" {
			return r
		}
	}
	return ""
}
