package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// VerifierKind selects the password backend behind the login form.
type VerifierKind string

const (
	// VerifierDemo accepts the single demo account with simulated latency.
	VerifierDemo VerifierKind = "demo"
	// VerifierDirectory checks bcrypt hashes in the SQL users table.
	VerifierDirectory VerifierKind = "directory"
)

// UnmarshalText implements encoding.TextUnmarshaler for VerifierKind.
func (v *VerifierKind) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	switch s {
	case "demo", "directory":
		*v = VerifierKind(s)
		return nil
	default:
		return fmt.Errorf("invalid VerifierKind: %q (valid options: demo, directory)", s)
	}
}

// AuthMode represents the single sign-on provider.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	GroupsClaim  string `env:"GROUPS_CLAIM"  envDefault:"groups"`
}

// Complete reports whether the provider can be constructed.
func (o OAuthConfig) Complete() bool {
	return o.DiscoveryURL != "" && o.ClientID != "" && o.ClientSecret != ""
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@viveconecta.local"`
	Name   string   `env:"NAME"    envDefault:"Dev User"`
	Groups []string `env:"GROUPS"  envDefault:"vc-admins"             envSeparator:";"`
}

// DemoAuthConfig tunes the demo verifier's simulated latency.
type DemoAuthConfig struct {
	LoginLatency   time.Duration `env:"LOGIN_LATENCY"   envDefault:"1500ms"`
	RestoreLatency time.Duration `env:"RESTORE_LATENCY" envDefault:"1000ms"`
}

// SSOConfig enables single sign-on next to the password form.
type SSOConfig struct {
	Enabled bool     `env:"AUTH_SSO_ENABLED" envDefault:"false"`
	Mode    AuthMode `env:"AUTH_MODE"        envDefault:"oauth"`

	// GroupRoles maps IdP groups to role labels: "vc-admins=Administrador,vc-eng=Ingeniero".
	GroupRoles string `env:"AUTH_SSO_GROUP_ROLES" envDefault:"vc-admins=Administrador"`
	// RoleExpr is a JMESPath expression over the ID token claims yielding the role label.
	// It takes precedence over GroupRoles when it yields a value.
	RoleExpr string `env:"AUTH_SSO_ROLE_EXPR"`
	// DefaultRole is assigned when no rule matches. Blank means no role.
	DefaultRole string `env:"AUTH_SSO_DEFAULT_ROLE"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Verifier VerifierKind   `env:"AUTH_VERIFIER" envDefault:"demo"`
	Demo     DemoAuthConfig `envPrefix:"AUTH_DEMO_"`
	SSO      SSOConfig
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.Demo.LoginLatency < 0 {
		a.Demo.LoginLatency = 0
	}
	if a.Demo.RestoreLatency < 0 {
		a.Demo.RestoreLatency = 0
	}
	a.SSO.RoleExpr = strings.TrimSpace(a.SSO.RoleExpr)
	a.SSO.DefaultRole = strings.TrimSpace(a.SSO.DefaultRole)
	if a.SSO.OAuth.GroupsClaim == "" {
		a.SSO.OAuth.GroupsClaim = "groups"
	}
}

// Validate rejects SSO settings that cannot produce a working provider.
func (a *AuthConfig) Validate(isDev bool) error {
	if !a.SSO.Enabled {
		return nil
	}
	var errs []error
	switch a.SSO.Mode {
	case AuthModeMock:
		if !isDev {
			errs = append(errs, errors.New("AUTH_MODE=mock is only allowed in dev mode"))
		}
	case AuthModeOAuth:
		if !a.SSO.OAuth.Complete() {
			errs = append(errs, errors.New(
				"AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", a.SSO.Mode))
	}
	return errors.Join(errs...)
}
