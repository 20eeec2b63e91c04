package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("NV001")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "NV001", username)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = ValidateToken("")
	assert.Error(t, err)
}
