package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  Ingeniero ")
	require.NoError(t, err)
	assert.Equal(t, RoleIngeniero, r)
	assert.True(t, r.Known())

	_, err = ParseRole("   ")
	require.ErrorIs(t, err, ErrInvalidRole)

	custom, err := ParseRole("Conserje")
	require.NoError(t, err)
	assert.False(t, custom.Known())
}

func TestUser_HasRole(t *testing.T) {
	assert.True(t, User{Role: RoleComercial}.HasRole())
	assert.False(t, User{}.HasRole())
	assert.False(t, User{Role: " "}.HasRole())
}

func TestSessionRecord_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, SessionRecord{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, SessionRecord{ExpiresAt: now}.Expired(now))
	assert.False(t, SessionRecord{}.Expired(now), "zero expiry never expires")
}

func TestNewSnapshot(t *testing.T) {
	tests := []struct {
		name          string
		state         State
		user          *User
		authenticated bool
		loading       bool
	}{
		{"uninitialized", StateUninitialized, nil, false, true},
		{"restoring", StateRestoring, nil, false, true},
		{"logging in", StateLoggingIn, nil, false, true},
		{"unauthenticated", StateUnauthenticated, nil, false, false},
		{"authenticated", StateAuthenticated, &User{ID: "1", Role: RoleAdministrador}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSnapshot(tt.state, tt.user)
			assert.Equal(t, tt.authenticated, s.Authenticated)
			assert.Equal(t, tt.loading, s.Loading)
			assert.Equal(t, tt.state, s.State)
		})
	}
}

func TestNewSnapshot_CopiesUser(t *testing.T) {
	u := &User{ID: "1", Role: RoleAdministrador}
	s := NewSnapshot(StateAuthenticated, u)
	u.Role = RoleComercial
	assert.Equal(t, RoleAdministrador, s.Role())
	assert.Equal(t, Role(""), NewSnapshot(StateUnauthenticated, nil).Role())
}

func TestState_CanLogin(t *testing.T) {
	assert.True(t, StateUnauthenticated.CanLogin())
	assert.True(t, StateAuthenticated.CanLogin())
	assert.False(t, StateRestoring.CanLogin())
	assert.False(t, StateLoggingIn.CanLogin())
	assert.False(t, StateUninitialized.CanLogin())
}

func TestFailureWrappers(t *testing.T) {
	cause := context.DeadlineExceeded
	err := RestoreFailed(cause)
	assert.ErrorIs(t, err, ErrRestoreFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = RefreshFailed(errors.New("boom"))
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.NotErrorIs(t, err, ErrRestoreFailed)

	assert.Equal(t, ErrRestoreFailed, RestoreFailed(nil))
}
