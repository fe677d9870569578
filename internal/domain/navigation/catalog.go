// Package navigation holds the static sidebar catalog and the role filter
// applied to it.
package navigation

import (
	"slices"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
)

// Entry is a single sidebar link.
type Entry struct {
	ID    string      `yaml:"id"`
	Name  string      `yaml:"name"`
	Path  string      `yaml:"path"`
	Icon  string      `yaml:"icon"`
	Roles []auth.Role `yaml:"roles"`
}

// Permits reports whether role is in the entry's permitted set.
// Matching is exact and case-sensitive.
func (e Entry) Permits(role auth.Role) bool {
	if role == "" {
		return false
	}
	return slices.Contains(e.Roles, role)
}

// IsActive reports whether the entry targets path exactly. No prefix matching.
func (e Entry) IsActive(path string) bool {
	return e.Path == path
}

// Category groups entries under a heading.
type Category struct {
	ID      string  `yaml:"id"`
	Title   string  `yaml:"title"`
	Entries []Entry `yaml:"entries"`
}

// Catalog is the ordered set of categories. It is never mutated after load.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// Filter returns the categories visible to role, keeping only permitted entries
// and dropping categories left empty. Catalog order is preserved.
// An empty role yields an empty result.
func (c Catalog) Filter(role auth.Role) []Category {
	out := make([]Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		var entries []Entry
		for _, e := range cat.Entries {
			if e.Permits(role) {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			continue
		}
		out = append(out, Category{ID: cat.ID, Title: cat.Title, Entries: entries})
	}
	return out
}

// Lookup finds the entry whose path equals path.
func (c Catalog) Lookup(path string) (Entry, bool) {
	for _, cat := range c.Categories {
		for _, e := range cat.Entries {
			if e.IsActive(path) {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Roles returns every distinct role label referenced by the catalog, in first-seen order.
func (c Catalog) Roles() []auth.Role {
	var roles []auth.Role
	for _, cat := range c.Categories {
		for _, e := range cat.Entries {
			for _, r := range e.Roles {
				if !slices.Contains(roles, r) {
					roles = append(roles, r)
				}
			}
		}
	}
	return roles
}

// UnknownRoles returns referenced labels that are not in auth.KnownRoles.
// Entries gated only by such labels are unreachable for current users.
func (c Catalog) UnknownRoles() []auth.Role {
	var unknown []auth.Role
	for _, r := range c.Roles() {
		if !r.Known() {
			unknown = append(unknown, r)
		}
	}
	return unknown
}
