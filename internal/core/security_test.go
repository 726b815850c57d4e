// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, rehash, err := CheckPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, _, err = CheckPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPassword_UnsupportedAlgorithm(t *testing.T) {
	_, _, err := CheckPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported algorithm")
}

func TestCheckPassword_InvalidFormat(t *testing.T) {
	_, _, err := CheckPassword("x", "not-a-hash")
	assert.Error(t, err)
}

func TestCheckPasswordTimingSafe_NoHash(t *testing.T) {
	ok, _, err := CheckPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	ok, _, err = CheckPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateVerificationCode(t *testing.T) {
	for range 50 {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		assert.Len(t, code, VerificationCodeDigits)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestGenerateResetToken(t *testing.T) {
	token, hash, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, HashToken(token), hash)

	other, _, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
