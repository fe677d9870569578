package guard

import (
	"fmt"
	"strings"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
)

// Policy maps protected paths to the role they require.
// Paths absent from the policy require no particular role.
type Policy map[string]auth.Role

// ParsePolicy reads "path=Role,path=Role". Blank input yields an empty policy.
func ParsePolicy(s string) (Policy, error) {
	p := Policy{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		path, label, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("rule %q: expected path=Role", part)
		}
		path = strings.TrimSpace(path)
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("rule %q: path must start with /", part)
		}
		role, err := auth.ParseRole(label)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", part, err)
		}
		if prev, dup := p[path]; dup && prev != role {
			return nil, fmt.Errorf("rule %q: path already requires %q", part, prev)
		}
		p[path] = role
	}
	return p, nil
}

// RequiredRole returns the role pinned to path, or "".
func (p Policy) RequiredRole(path string) auth.Role {
	return p[path]
}

// Request builds a guard request for path under the policy.
func (p Policy) Request(path string) Request {
	return Request{Path: path, RequiredRole: p.RequiredRole(path)}
}
