package viewmodel

import (
	"github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/domain/navigation"
)

// NavEntry is one sidebar link.
type NavEntry struct {
	ID     string
	Name   string
	Path   string
	Icon   string
	Active bool
}

// NavCategory groups entries under a heading.
type NavCategory struct {
	ID      string
	Title   string
	Entries []NavEntry
}

// Sidebar is the rendered navigation state.
type Sidebar struct {
	Open       bool
	Categories []NavCategory
}

// Empty reports whether the role sees no entries at all.
func (s Sidebar) Empty() bool { return len(s.Categories) == 0 }

// NewSidebar filters catalog for role and marks the entry matching currentPath.
func NewSidebar(catalog navigation.Catalog, role auth.Role, currentPath string, open bool) Sidebar {
	filtered := catalog.Filter(role)
	sb := Sidebar{Open: open, Categories: make([]NavCategory, 0, len(filtered))}
	for _, c := range filtered {
		cat := NavCategory{ID: c.ID, Title: c.Title, Entries: make([]NavEntry, 0, len(c.Entries))}
		for _, e := range c.Entries {
			cat.Entries = append(cat.Entries, NavEntry{
				ID:     e.ID,
				Name:   e.Name,
				Path:   e.Path,
				Icon:   e.Icon,
				Active: e.IsActive(currentPath),
			})
		}
		sb.Categories = append(sb.Categories, cat)
	}
	return sb
}
