package ports_test

import (
	"testing"

	"github.com/viveconecta/admin-ui/internal/mocks"
	mockauth "github.com/viveconecta/admin-ui/internal/mocks/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mockauth.MockAuthProvider)(nil)
	var _ ports.CredentialVerifier = (*mockauth.StubVerifier)(nil)
	var _ ports.RoleMapper = mockauth.RoleFunc(nil)

	var _ ports.ClientStorage = (*mocks.MockClientStorage)(nil)
	var _ ports.SessionStore = (*mocks.MockSessionStore)(nil)
	var _ ports.CredentialVerifier = (*mocks.MockCredentialVerifier)(nil)
	var _ ports.TokenCodec = (*mocks.MockTokenCodec)(nil)
	var _ ports.UserDirectory = (*mocks.MockUserDirectory)(nil)
}
