package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/adapters/authroles"
	"github.com/viveconecta/admin-ui/internal/adapters/democreds"
	"github.com/viveconecta/admin-ui/internal/adapters/devauth"
	"github.com/viveconecta/admin-ui/internal/adapters/directory"
	"github.com/viveconecta/admin-ui/internal/adapters/oidc"
	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
	"github.com/viveconecta/admin-ui/internal/service"
)

// VerifierDeps contains what the credential backends may need.
type VerifierDeps struct {
	Auth   config.AuthConfig
	DB     *sql.DB
	Logger *slog.Logger
}

// VerifierBundle is the selected credential backend. Directory is nil unless
// the backend is the SQL directory, which also serves the workers page.
type VerifierBundle struct {
	Verifier  ports.CredentialVerifier
	Directory ports.UserDirectory
	// Demo is set when the demo account is active so the login page can hint it.
	Demo *democreds.Config
}

// BuildVerifier selects the credential backend behind the login form.
func BuildVerifier(deps VerifierDeps) (VerifierBundle, error) {
	switch deps.Auth.Verifier {
	case config.VerifierDirectory:
		if deps.DB == nil {
			return VerifierBundle{}, errors.New("directory verifier requires a database")
		}
		repo := directory.New(deps.DB)
		return VerifierBundle{Verifier: repo, Directory: repo}, nil

	case config.VerifierDemo, "":
		demo := democreds.Defaults()
		demo.LoginLatency = deps.Auth.Demo.LoginLatency
		demo.RestoreLatency = deps.Auth.Demo.RestoreLatency
		if deps.Logger != nil {
			deps.Logger.Info("demo credential verifier active", "email", demo.Email)
		}
		return VerifierBundle{Verifier: democreds.New(demo), Demo: &demo}, nil

	default:
		return VerifierBundle{}, fmt.Errorf("unknown verifier %q", deps.Auth.Verifier)
	}
}

// SSOConfig contains configuration for the single sign-on service.
type SSOConfig struct {
	Auth   config.SSOConfig
	Logger *slog.Logger
}

// BuildSSOService creates the single sign-on service for the configured mode.
// It returns nil, nil when SSO is disabled.
func BuildSSOService(ctx context.Context, cfg SSOConfig) (*service.SSOService, error) {
	if !cfg.Auth.Enabled {
		return nil, nil
	}

	roles, err := BuildRoleMapper(cfg.Auth)
	if err != nil {
		return nil, err
	}

	var provider ports.AuthProvider
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		provider, err = buildDevAuthProvider(cfg)
	case config.AuthModeOAuth:
		provider, err = buildOIDCProvider(ctx, cfg)
	default:
		err = fmt.Errorf("unknown AUTH_MODE %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("single sign-on enabled", "mode", cfg.Auth.Mode)
	}
	return service.NewSSOService(service.SSOServiceOptions{
		Provider: provider,
		Roles:    roles,
	})
}

// BuildRoleMapper chains the claim expression (when set) ahead of the group rules.
func BuildRoleMapper(cfg config.SSOConfig) (authroles.Chain, error) {
	rules, err := authroles.ParseGroupRules(cfg.GroupRoles)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SSO_GROUP_ROLES: %w", err)
	}

	var def domainauth.Role
	if cfg.DefaultRole != "" {
		if def, err = domainauth.ParseRole(cfg.DefaultRole); err != nil {
			return nil, fmt.Errorf("AUTH_SSO_DEFAULT_ROLE: %w", err)
		}
	}

	var chain authroles.Chain
	if cfg.RoleExpr != "" {
		expr, exprErr := authroles.NewClaimExprMapper(cfg.RoleExpr)
		if exprErr != nil {
			return nil, fmt.Errorf("AUTH_SSO_ROLE_EXPR: %w", exprErr)
		}
		chain = append(chain, expr)
	}
	return append(chain, authroles.GroupMapper{Rules: rules, Default: def}), nil
}

//nolint:ireturn // the provider is consumed through ports.AuthProvider.
func buildDevAuthProvider(cfg SSOConfig) (ports.AuthProvider, error) {
	dev := cfg.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		Subject: dev.UserID,
		Email:   dev.Email,
		Name:    dev.Name,
		Groups:  dev.Groups,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("mock single sign-on active; every callback logs in as the dev identity",
			"email", dev.Email)
	}
	return prov, nil
}

//nolint:ireturn // the provider is consumed through ports.AuthProvider.
func buildOIDCProvider(ctx context.Context, cfg SSOConfig) (ports.AuthProvider, error) {
	oauth := cfg.Auth.OAuth
	if !oauth.Complete() {
		return nil, errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
	}
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		GroupsClaim:  oauth.GroupsClaim,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}
