package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
)

func TestDecide(t *testing.T) {
	admin := &auth.User{ID: "1", Role: auth.RoleAdministrador}

	tests := []struct {
		name     string
		req      Request
		snap     auth.Snapshot
		expected Decision
	}{
		{
			name:     "loading waits even without a user",
			req:      Request{Path: "/dashboard"},
			snap:     auth.NewSnapshot(auth.StateRestoring, nil),
			expected: Decision{Outcome: Wait},
		},
		{
			name:     "logging in waits",
			req:      Request{Path: "/dashboard"},
			snap:     auth.NewSnapshot(auth.StateLoggingIn, nil),
			expected: Decision{Outcome: Wait},
		},
		{
			name:     "unauthenticated redirects with original path",
			req:      Request{Path: "/dashboard/trabajadores"},
			snap:     auth.NewSnapshot(auth.StateUnauthenticated, nil),
			expected: Decision{Outcome: Redirect, RedirectTo: "/login?redirect_uri=%2Fdashboard%2Ftrabajadores"},
		},
		{
			name:     "authenticated without role constraint is admitted",
			req:      Request{Path: "/dashboard"},
			snap:     auth.NewSnapshot(auth.StateAuthenticated, admin),
			expected: Decision{Outcome: Admit},
		},
		{
			name:     "matching role is admitted",
			req:      Request{Path: "/dashboard", RequiredRole: auth.RoleAdministrador},
			snap:     auth.NewSnapshot(auth.StateAuthenticated, admin),
			expected: Decision{Outcome: Admit},
		},
		{
			name: "role mismatch is denied",
			req:  Request{Path: "/dashboard", RequiredRole: auth.RoleIngeniero},
			snap: auth.NewSnapshot(auth.StateAuthenticated, admin),
			expected: Decision{
				Outcome:      Deny,
				RequiredRole: auth.RoleIngeniero,
				UserRole:     auth.RoleAdministrador,
			},
		},
		{
			name: "role match is case sensitive",
			req:  Request{Path: "/dashboard", RequiredRole: "administrador"},
			snap: auth.NewSnapshot(auth.StateAuthenticated, admin),
			expected: Decision{
				Outcome:      Deny,
				RequiredRole: "administrador",
				UserRole:     auth.RoleAdministrador,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.req, tt.snap))
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                         DefaultLanding,
		"/dashboard":               "/dashboard",
		"/dashboard/trabajadores":  "/dashboard/trabajadores",
		"/dashboard?page=2":        "/dashboard?page=2",
		"https://evil.example/x":   DefaultLanding,
		"//evil.example/x":         DefaultLanding,
		"relative/path":            DefaultLanding,
		"/login":                   DefaultLanding,
		"/":                        DefaultLanding,
		"javascript:alert(1)":      DefaultLanding,
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeRedirect(in), "input %q", in)
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login?redirect_uri=%2Fdashboard", LoginURL("/dashboard"))
	assert.Equal(t, "/login?redirect_uri=%2Fdashboard", LoginURL("https://evil.example"))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "admit", Admit.String())
	assert.Equal(t, "wait", Wait.String())
	assert.Equal(t, "redirect", Redirect.String())
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
