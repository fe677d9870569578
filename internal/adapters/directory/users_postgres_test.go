package directory

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	apperrors "github.com/viveconecta/admin-ui/internal/errors"
	"github.com/viveconecta/admin-ui/internal/ports"
	"github.com/viveconecta/admin-ui/internal/testutil"
)

// Runs against PostgreSQL when TEST_DB_* points at a reachable server; skipped otherwise.
func TestPostgres_DirectoryRoundTrip(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		r := New(db, WithBcryptCost(bcrypt.MinCost), WithClock(testutil.FixedTimeFunc(testutil.TestTime())))
		ctx := context.Background()

		u, err := r.Create(ctx, NewUser{Email: "SelloStore@Company.com", Name: "John Doe", Role: domainauth.RoleAdministrador, Password: "Sellostore."})
		require.NoError(t, err)

		_, err = r.Create(ctx, NewUser{Email: "sellostore@company.com", Name: "Dup", Role: domainauth.RoleComercial, Password: "12345678"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err), "got %v", err)
		assert.Equal(t, "email", apperrors.GetField(err))

		got, err := r.Authenticate(ctx, "sellostore@company.com", "Sellostore.")
		require.NoError(t, err)
		assert.Equal(t, u, got)

		_, err = r.Create(ctx, NewUser{Email: "maria_p@company.com", Name: "María Pérez", Role: domainauth.RoleComercial, Password: "12345678"})
		require.NoError(t, err)

		found, err := r.List(ctx, ports.UserListOptions{Search: "MARÍA"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "maria_p@company.com", found[0].Email)

		require.NoError(t, r.SetDisabled(ctx, "maria_p@company.com", true))
		n, err := r.Count(ctx, ports.UserListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
