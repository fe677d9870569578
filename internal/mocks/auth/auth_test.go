package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	authURL, state, nonce, err := provider.Begin(ctx, ports.BeginInput{RedirectURL: "http://localhost:8080/auth/callback"})
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Exchange(t *testing.T) {
	provider := &MockAuthProvider{}
	id, err := provider.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", id.Subject)
	assert.True(t, id.ExpiresAt.After(time.Now()))
}

func TestStubVerifier_DefaultsAndCounters(t *testing.T) {
	v := &StubVerifier{}
	ctx := context.Background()

	_, err := v.Authenticate(ctx, "a", "b")
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	u := domainauth.User{ID: "1"}
	got, err := v.Resolve(ctx, domainauth.SessionRecord{User: u})
	require.NoError(t, err)
	assert.Equal(t, u, got)

	assert.Equal(t, 1, v.AuthenticateCalls())
	assert.Equal(t, 1, v.ResolveCalls())
}

func TestStubVerifier_GateHonorsContext(t *testing.T) {
	v := &StubVerifier{Gate: make(chan struct{}), AuthenticateFunc: AcceptOnly("a", "b", domainauth.User{ID: "1"})}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := v.Authenticate(ctx, "a", "b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(v.Gate)
	u, err := v.Authenticate(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
}

func TestRoleFunc(t *testing.T) {
	var m ports.RoleMapper = RoleFunc(func(domainauth.Identity) domainauth.Role { return domainauth.RoleComercial })
	assert.Equal(t, domainauth.RoleComercial, m.Map(domainauth.Identity{}))
}
