package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"securebank/internal/util"
)

func TestNewCredentialChecker(t *testing.T) {
	c, err := NewCredentialChecker("")
	require.NoError(t, err)
	assert.IsType(t, PlainChecker{}, c)

	c, err = NewCredentialChecker("BCRYPT")
	require.NoError(t, err)
	assert.IsType(t, BcryptChecker{}, c)

	_, err = NewCredentialChecker("md5")
	assert.Error(t, err)
}

func TestPlainChecker(t *testing.T) {
	c := PlainChecker{}
	stored, err := c.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", stored)
	assert.True(t, c.Verify(stored, "secret"))
	assert.False(t, c.Verify(stored, "Secret"))
	assert.False(t, c.Verify(stored, ""))
}

func TestBcryptChecker(t *testing.T) {
	c := BcryptChecker{Cost: bcrypt.MinCost}
	stored, err := c.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored)
	assert.True(t, c.Verify(stored, "secret"))
	assert.False(t, c.Verify(stored, "wrong"))
	assert.False(t, c.Verify("not-a-hash", "secret"))
}

func TestBcryptChecker_PasswordTooLong(t *testing.T) {
	c := BcryptChecker{Cost: bcrypt.MinCost}

	_, err := c.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, util.ErrPasswordTooLong)

	_, err = c.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err, "72 bytes is the bcrypt limit")
}
