package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, accessTTL time.Duration) TokenService {
	svc, err := NewTokenService(
		accessTTL,
		24*time.Hour,
		"scanlytic-test",
		"scanlytic-test-clients",
		false,
		"",
		"",
		"test-secret-key-with-enough-entropy",
	)
	require.NoError(t, err)
	return svc
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.CustomerID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceRevocation(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	assert.False(t, svc.IsTokenRevoked(access))
	require.NoError(t, svc.RevokeToken(access))
	assert.True(t, svc.IsTokenRevoked(access))

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
