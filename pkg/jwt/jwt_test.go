package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/inventory-ledger/pkg/jwt"
)

const (
	secret    = "test-secret-key-for-unit-tests"
	userID    = "00000000-0000-0000-0000-000000000001"
	companyID = "00000000-0000-0000-0000-000000000002"
	issuer    = "inventory-pro-test"
)

func TestGenerateAndParse_ConRole(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, pkgjwt.RoleBodeguero, issuer, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, pkgjwt.RoleBodeguero, claims.Role)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, pkgjwt.RoleAdmin, issuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(secret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, pkgjwt.RoleAdmin, issuer, 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestParse_SinCompany(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, "", pkgjwt.RoleAdmin, issuer, 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(secret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrIncompleteClaims)
}

func TestSecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", userID, companyID, pkgjwt.RoleAdmin, issuer, 60)
	assert.Error(t, err)
	_, err = pkgjwt.Parse("", "x.y.z")
	assert.Error(t, err)
}

func TestVerifier_Emisor(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, companyID, pkgjwt.RoleAdmin, "otro-emisor", 60)
	require.NoError(t, err)

	v, err := pkgjwt.NewVerifier(secret, issuer)
	require.NoError(t, err)
	_, err = v.Verify(tok)
	assert.Error(t, err, "emisor distinto al configurado")

	tok, err = pkgjwt.Generate(secret, userID, companyID, pkgjwt.RoleAdmin, issuer, 60)
	require.NoError(t, err)
	claims, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, pkgjwt.RoleAdmin, claims.Role)
}
