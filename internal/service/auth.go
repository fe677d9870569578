package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

// SSOServiceOptions groups dependencies for SSOService.
type SSOServiceOptions struct {
	Provider ports.AuthProvider
	Roles    ports.RoleMapper
}

// SSOService drives the IdP half of single sign-on: it starts the flow,
// exchanges the callback code and maps the identity to an application user.
// The resulting SSOLogin is handed to SessionManager.CompleteSSO.
type SSOService struct {
	provider ports.AuthProvider
	roles    ports.RoleMapper
}

// NewSSOService constructs a new SSOService.
func NewSSOService(opts SSOServiceOptions) (*SSOService, error) {
	if opts.Provider == nil {
		return nil, errors.New("auth provider is required")
	}
	return &SSOService{provider: opts.Provider, roles: opts.Roles}, nil
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *SSOService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the authorization code for an identity and maps it
// to an application user. It does not touch any session state.
func (s *SSOService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (SSOLogin, error) {
	switch {
	case input.Code == "":
		return SSOLogin{}, errors.New("authorization code is required")
	case input.State == "":
		return SSOLogin{}, errors.New("state parameter is required")
	case input.Nonce == "":
		return SSOLogin{}, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return SSOLogin{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	if identity.Subject == "" {
		return SSOLogin{}, errors.New("identity has no subject")
	}

	var role domainauth.Role
	if s.roles != nil {
		role = s.roles.Map(identity)
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	return SSOLogin{
		User: domainauth.User{
			ID:    identity.Subject,
			Email: identity.Email,
			Name:  name,
			Role:  role,
		},
		ExpiresAt: identity.ExpiresAt,
	}, nil
}
