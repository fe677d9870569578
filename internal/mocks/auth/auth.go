// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider       = (*MockAuthProvider)(nil)
	_ ports.CredentialVerifier = (*StubVerifier)(nil)
	_ ports.RoleMapper         = RoleFunc(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			Subject: "mock-user-1",
			Email:   "mock.user@example.com",
			Name:    "Mock User",
			Groups:  []string{"vc-admins"},
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	id := m.DefaultUser
	if id.Subject == "" {
		id = NewMockAuthProvider().DefaultUser
	}
	id.ExpiresAt = time.Now().Add(time.Hour)
	return id, nil
}

// StubVerifier is a CredentialVerifier driven by functions, with call counters.
// When Gate is non-nil, every call blocks until Gate is closed or ctx ends.
type StubVerifier struct {
	AuthenticateFunc func(ctx context.Context, email, password string) (domainauth.User, error)
	ResolveFunc      func(ctx context.Context, rec domainauth.SessionRecord) (domainauth.User, error)
	Gate             chan struct{}

	authCalls    atomic.Int32
	resolveCalls atomic.Int32
}

func (s *StubVerifier) wait(ctx context.Context) error {
	if s.Gate == nil {
		return nil
	}
	select {
	case <-s.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StubVerifier) Authenticate(ctx context.Context, email, password string) (domainauth.User, error) {
	s.authCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return domainauth.User{}, err
	}
	if s.AuthenticateFunc != nil {
		return s.AuthenticateFunc(ctx, email, password)
	}
	return domainauth.User{}, domainauth.ErrInvalidCredentials
}

func (s *StubVerifier) Resolve(ctx context.Context, rec domainauth.SessionRecord) (domainauth.User, error) {
	s.resolveCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return domainauth.User{}, err
	}
	if s.ResolveFunc != nil {
		return s.ResolveFunc(ctx, rec)
	}
	return rec.User, nil
}

// AuthenticateCalls returns how many times Authenticate was entered.
func (s *StubVerifier) AuthenticateCalls() int { return int(s.authCalls.Load()) }

// ResolveCalls returns how many times Resolve was entered.
func (s *StubVerifier) ResolveCalls() int { return int(s.resolveCalls.Load()) }

// AcceptOnly returns an AuthenticateFunc that admits exactly one email/password pair.
func AcceptOnly(email, password string, u domainauth.User) func(context.Context, string, string) (domainauth.User, error) {
	return func(_ context.Context, e, p string) (domainauth.User, error) {
		if e == email && p == password {
			return u, nil
		}
		return domainauth.User{}, domainauth.ErrInvalidCredentials
	}
}

// RoleFunc adapts a function to ports.RoleMapper.
type RoleFunc func(domainauth.Identity) domainauth.Role

func (f RoleFunc) Map(id domainauth.Identity) domainauth.Role { return f(id) }
