package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" /dashboard/trabajadores = Administrador , ,/reportes=Comercial")
	require.NoError(t, err)

	assert.Equal(t, auth.RoleAdministrador, p.RequiredRole("/dashboard/trabajadores"))
	assert.Equal(t, auth.RoleComercial, p.RequiredRole("/reportes"))
	assert.Empty(t, p.RequiredRole("/dashboard"))
	assert.Equal(t, Request{Path: "/reportes", RequiredRole: auth.RoleComercial}, p.Request("/reportes"))
}

func TestParsePolicy_Empty(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Equal(t, Request{Path: "/dashboard"}, p.Request("/dashboard"))
}

func TestParsePolicy_Errors(t *testing.T) {
	for _, in := range []string{
		"/dashboard",
		"dashboard=Administrador",
		"/dashboard=  ",
		"/dashboard=Administrador,/dashboard=Comercial",
	} {
		_, err := ParsePolicy(in)
		assert.Error(t, err, in)
	}
}
