package config

import (
	"fmt"
	"strings"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
)

// NavigationConfig points at an optional catalog override and per-route role requirements.
type NavigationConfig struct {
	// CatalogFile replaces the embedded catalog when set.
	CatalogFile string `env:"NAV_CATALOG_FILE"`

	// RouteRoles pins a required role to protected paths:
	// "/dashboard/trabajadores=Administrador". Unlisted paths admit any authenticated user.
	RouteRoles string `env:"NAV_ROUTE_ROLES"`
}

// Sanitize trims free-form fields.
func (n *NavigationConfig) Sanitize() {
	n.CatalogFile = strings.TrimSpace(n.CatalogFile)
	n.RouteRoles = strings.TrimSpace(n.RouteRoles)
}

// Validate checks that RouteRoles parses.
func (n *NavigationConfig) Validate() error {
	if _, err := guard.ParsePolicy(n.RouteRoles); err != nil {
		return fmt.Errorf("NAV_ROUTE_ROLES: %w", err)
	}
	return nil
}
