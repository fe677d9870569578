// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Role is a role label such as "Administrador".
// Labels come from an open set; KnownRoles documents the ones in use.
type Role string

const (
	RoleAdministrador Role = "Administrador"
	RoleIngeniero     Role = "Ingeniero"
	RoleComercial     Role = "Comercial"
)

// KnownRoles is the registry of role labels the product currently assigns.
// Labels outside it are accepted but produce warnings where catalogs reference them.
var KnownRoles = []Role{RoleAdministrador, RoleIngeniero, RoleComercial}

// ErrInvalidRole is returned by ParseRole for blank labels.
var ErrInvalidRole = errors.New("role label must not be blank")

// ParseRole trims s and validates it as a role label.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether the label is non-blank.
func (r Role) Valid() bool { return strings.TrimSpace(string(r)) != "" }

// Known reports whether the label is in KnownRoles.
func (r Role) Known() bool { return slices.Contains(KnownRoles, r) }

func (r Role) String() string { return string(r) }

// User is the identity record held by a session manager while authenticated.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role,omitempty"`
}

// HasRole reports whether the user carries a usable role label.
// Users without one see no navigation entries.
func (u User) HasRole() bool { return u.Role.Valid() }

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string // stable user identifier (sub)
	Email     string
	Name      string
	Groups    []string
	Claims    map[string]any // raw ID token claims, used by claim-expression role mapping
	ExpiresAt time.Time      // absolute expiry from IdP token
}

// Method records how a session was established.
type Method string

const (
	// MethodPassword sessions are re-verified against the credential backend on restore.
	MethodPassword Method = "password"
	// MethodSSO sessions trust the stored record until it expires.
	MethodSSO Method = "sso"
)

// SessionRecord is the server-side record behind a persisted token.
// ID doubles as the token's jti.
type SessionRecord struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Method    Method    `json:"method,omitempty"`
	Remember  bool      `json:"remember"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (s SessionRecord) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
