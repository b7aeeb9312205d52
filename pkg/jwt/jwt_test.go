package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/bodegas-api/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "bodegas-api-test"
)

func TestGenerateYParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "operador-1", pkgjwt.RoleBodeguero, testIssuer, time.Hour)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testSecret, testIssuer, tok)
	require.NoError(t, err)
	assert.Equal(t, "operador-1", claims.Subject)
	assert.Equal(t, pkgjwt.RoleBodeguero, claims.Role)
}

func TestParse_Rechazos(t *testing.T) {
	valid, err := pkgjwt.Generate(testSecret, "op", pkgjwt.RoleAdmin, testIssuer, time.Hour)
	require.NoError(t, err)
	expired, err := pkgjwt.Generate(testSecret, "op", pkgjwt.RoleAdmin, testIssuer, -time.Minute)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret", testIssuer, valid)
	assert.Error(t, err, "secret incorrecto")

	_, err = pkgjwt.Parse(testSecret, "otro-emisor", valid)
	assert.Error(t, err, "emisor distinto")

	_, err = pkgjwt.Parse(testSecret, testIssuer, expired)
	assert.Error(t, err, "token expirado")

	_, err = pkgjwt.Parse(testSecret, testIssuer, "token.invalido.aqui")
	assert.Error(t, err)

	_, err = pkgjwt.Generate("", "op", pkgjwt.RoleAdmin, testIssuer, time.Hour)
	assert.Error(t, err)
}

func TestCanWrite(t *testing.T) {
	assert.True(t, pkgjwt.CanWrite(pkgjwt.RoleAdmin))
	assert.True(t, pkgjwt.CanWrite(pkgjwt.RoleBodeguero))
	assert.False(t, pkgjwt.CanWrite(pkgjwt.RoleConsulta))
	assert.False(t, pkgjwt.CanWrite(""))
}
