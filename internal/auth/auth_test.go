package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeysRequiresSecrets(t *testing.T) {
	_, err := NewKeys("", "refresh")
	assert.Error(t, err)

	_, err = NewKeys("access", "")
	assert.Error(t, err)

	_, err = NewKeys("access", "refresh")
	assert.NoError(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	keys, err := NewKeys("access-secret", "refresh-secret")
	require.NoError(t, err)

	token, err := keys.GenerateAccessToken("user-1", []string{RoleUser})
	require.NoError(t, err)

	claims, err := keys.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestAccessTokenRejectedWithWrongSecret(t *testing.T) {
	keys, err := NewKeys("access-secret", "refresh-secret")
	require.NoError(t, err)
	otherKeys, err := NewKeys("different-secret", "refresh-secret")
	require.NoError(t, err)

	token, err := keys.GenerateAccessToken("user-1", []string{RoleUser})
	require.NoError(t, err)

	_, err = otherKeys.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	keys, err := NewKeys("access-secret", "refresh-secret")
	require.NoError(t, err)

	claims := Claims{
		Roles: []string{RoleUser},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(keys.accessSecret)
	require.NoError(t, err)

	_, err = keys.ValidateAccessToken(expired)
	assert.Error(t, err)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	keys, err := NewKeys("access-secret", "refresh-secret")
	require.NoError(t, err)

	refresh, err := keys.GenerateRefreshToken("user-1", []string{RoleUser})
	require.NoError(t, err)

	_, err = keys.ValidateAccessToken(refresh)
	assert.Error(t, err)

	claims, err := keys.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestMalformedTokenRejected(t *testing.T) {
	keys, err := NewKeys("access-secret", "refresh-secret")
	require.NoError(t, err)

	_, err = keys.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
