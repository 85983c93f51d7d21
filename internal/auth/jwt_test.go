package auth

import (
	"testing"

	"rentfolio-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func TestGenerateTokenRoundTrip(t *testing.T) {
	user := &models.User{
		ID:    7,
		Email: "lea@example.com",
		Role:  models.RoleLandlord,
	}

	signed, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	token, err := jwt.ParseWithClaims(signed, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*JWTCustomClaims)
	require.True(t, ok)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "lea@example.com", claims.Email)
	assert.Equal(t, models.RoleLandlord, claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	user := &models.User{ID: 7, Email: "lea@example.com", Role: models.RoleTenant}

	signed, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(signed, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("a-completely-different-secret-value"), nil
	})
	assert.Error(t, err)
}
