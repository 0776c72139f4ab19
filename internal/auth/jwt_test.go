package auth

import (
	"canvas-editor/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecret(t *testing.T, s string) {
	t.Helper()
	prev := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = s
	t.Cleanup(func() { config.AppConfig.JWTSecret = prev })
}

func TestAccessToken_RoundTrip(t *testing.T) {
	setSecret(t, "test-secret")

	token, err := GenerateAccessToken(42, 3)
	require.NoError(t, err)

	claims, err := VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, uint64(3), claims.TokenVersion)
}

func TestVerifyAccessToken_RejectsRefreshToken(t *testing.T) {
	setSecret(t, "test-secret")

	token, err := GenerateRefreshToken(42, 0)
	require.NoError(t, err)

	_, err = VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	setSecret(t, "first")
	token, err := GenerateAccessToken(1, 0)
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "second"
	_, err = VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	setSecret(t, "test-secret")
	_, err := VerifyAccessToken("not.a.token")
	assert.Error(t, err)
}
