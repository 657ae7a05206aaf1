package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenRoundTrip verifies a generated token verifies with the same
// secret and carries the user claims.
func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("test-secret", 42, "reviewer", time.Hour)
	require.NoError(t, err)

	claims, err := VerifyToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "reviewer", claims.Role)
}

// TestTokenWrongSecret verifies tokens signed with another secret are
// rejected.
func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", 1, "user", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken("secret-b", token)
	assert.Error(t, err)
}

// TestTokenExpired verifies expired tokens are rejected.
func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", 1, "user", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken("test-secret", token)
	assert.Error(t, err)
}

// TestTokenGarbage verifies arbitrary strings are rejected.
func TestTokenGarbage(t *testing.T) {
	_, err := VerifyToken("test-secret", "not-a-token")
	assert.Error(t, err)
}
