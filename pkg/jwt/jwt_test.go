package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := Generate("secret", "user-1", "bodeguero", "taller", 5)
	require.NoError(t, err)

	userID, role, err := Parse("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "bodeguero", role)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Generate("secret", "user-1", "admin", "taller", 5)
	require.NoError(t, err)

	_, _, err = Parse("otro", token)
	assert.Error(t, err, "firma con otro secreto debe fallar")
}

func TestParse_Expired(t *testing.T) {
	token, err := Generate("secret", "user-1", "admin", "taller", -1)
	require.NoError(t, err)

	_, _, err = Parse("secret", token)
	assert.Error(t, err, "token expirado debe fallar")
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := Generate("", "user-1", "admin", "taller", 5)
	assert.Error(t, err)
}
