package democreds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
)

func fast() *Verifier {
	cfg := Defaults()
	cfg.LoginLatency = 0
	cfg.RestoreLatency = 0
	return New(cfg)
}

func TestAuthenticate(t *testing.T) {
	v := fast()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", DemoEmail, DemoPassword, false},
		{"email case differs", "SelloStore@Company.com", DemoPassword, true},
		{"email padded", " sellostore@company.com ", DemoPassword, true},
		{"email upper and padded", " SELLOSTORE@COMPANY.COM ", DemoPassword, true},
		{"wrong password", DemoEmail, "sellostore.", true},
		{"wrong email", "other@company.com", DemoPassword, true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := v.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DemoUser, u)
		})
	}
}

func TestResolve_AlwaysDemoUser(t *testing.T) {
	u, err := fast().Resolve(context.Background(), domainauth.SessionRecord{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", u.Name)
	assert.Equal(t, domainauth.RoleAdministrador, u.Role)
}

func TestLatencyHonorsCancellation(t *testing.T) {
	v := New(Config{LoginLatency: time.Hour, RestoreLatency: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := v.Authenticate(ctx, DemoEmail, DemoPassword)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	_, err = v.Resolve(ctx, domainauth.SessionRecord{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLatencyApplied(t *testing.T) {
	v := New(Config{LoginLatency: 30 * time.Millisecond})
	start := time.Now()
	_, err := v.Authenticate(context.Background(), DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestNew_FillsBlanks(t *testing.T) {
	v := New(Config{User: domainauth.User{ID: "7", Name: "Ana", Role: domainauth.RoleIngeniero}})
	u, err := v.Authenticate(context.Background(), DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, DemoEmail, u.Email)
}
