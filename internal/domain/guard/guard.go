// Package guard decides whether a navigation request for a protected view
// proceeds, waits, redirects to login, or is denied.
package guard

import (
	"net/url"
	"strings"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
)

const (
	// LoginPath is the login entry point.
	LoginPath = "/login"
	// DefaultLanding is where a user lands after login when no target was stashed.
	DefaultLanding = "/dashboard"
	// RedirectParam carries the originally requested path through the login flow.
	RedirectParam = "redirect_uri"
)

// Outcome enumerates guard results.
type Outcome int

const (
	Admit Outcome = iota
	Wait
	Redirect
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Admit:
		return "admit"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Request describes a navigation attempt.
// An empty RequiredRole means any authenticated user is admitted.
type Request struct {
	Path         string
	RequiredRole auth.Role
}

// Decision is the result of Decide.
type Decision struct {
	Outcome Outcome
	// RedirectTo is set for Redirect and points at the login entry point.
	RedirectTo string
	// RequiredRole and UserRole are set for Deny.
	RequiredRole auth.Role
	UserRole     auth.Role
}

// Decide evaluates req against the session snapshot.
// Loading always waits so that a restoring session never flashes the login page.
func Decide(req Request, snap auth.Snapshot) Decision {
	if snap.Loading {
		return Decision{Outcome: Wait}
	}
	if !snap.Authenticated {
		return Decision{Outcome: Redirect, RedirectTo: LoginURL(req.Path)}
	}
	if req.RequiredRole != "" && snap.Role() != req.RequiredRole {
		return Decision{
			Outcome:      Deny,
			RequiredRole: req.RequiredRole,
			UserRole:     snap.Role(),
		}
	}
	return Decision{Outcome: Admit}
}

// LoginURL builds the login URL carrying from as the post-login target.
func LoginURL(from string) string {
	return LoginPath + "?" + RedirectParam + "=" + url.QueryEscape(SafeRedirect(from))
}

// SafeRedirect returns candidate when it is a same-origin relative path and
// DefaultLanding otherwise. Login paths are rejected to avoid loops.
func SafeRedirect(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return DefaultLanding
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return DefaultLanding
	}
	// "//evil.example" parses as a host-less path on some inputs; reject it explicitly.
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return DefaultLanding
	}
	if u.Path == "/" || u.Path == LoginPath {
		return DefaultLanding
	}
	return candidate
}
