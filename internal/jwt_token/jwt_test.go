package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arbor/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key-0123456789", "test-issuer")

const expiresIn = time.Hour

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("alice", []string{"coordinator"}, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"coordinator"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.Message(err))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("alice", nil, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}

func Test_ValidateToken_WrongKeyOrIssuer(t *testing.T) {
	other := NewJWTService("another-signing-key-0123456789", "test-issuer")
	token, err := other.GenerateAccessToken("alice", nil, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	foreign := NewJWTService("test-signing-key-0123456789", "someone-else")
	token, err = foreign.GenerateAccessToken("alice", nil, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RequiresSubject(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("", nil, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.Equal(t, "token has no subject", dErrors.Message(err))
}

func Test_Adapter(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("bob", []string{"coordinator"}, expiresIn)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Principal)
	assert.Equal(t, []string{"coordinator"}, claims.Roles)
	assert.NotEmpty(t, claims.JTI)
}

func Test_Adapter_NormalizesRoles(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("carol", []string{" coordinator", "coordinator", "", "planter "}, expiresIn)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"coordinator", "planter"}, claims.Roles)
}

func Test_Adapter_RejectsInvalid(t *testing.T) {
	_, err := NewJWTServiceAdapter(jwtService).ValidateToken("garbage")
	require.Error(t, err)
}
