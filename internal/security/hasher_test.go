package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"user-auth-service/internal/model"
)

func TestNewPasswordHasher(t *testing.T) {
	t.Parallel()

	_, err := NewPasswordHasher(3)
	require.Error(t, err)

	_, err = NewPasswordHasher(32)
	require.Error(t, err)

	hasher, err := NewPasswordHasher(4)
	require.NoError(t, err)
	require.NotNil(t, hasher)
}

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	// Min cost keeps the test fast; the hash format is the same at any cost.
	hasher, err := NewPasswordHasher(4)
	require.NoError(t, err)

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash.String(), "$2a$"))

	require.True(t, hasher.Verify("correct horse battery staple", hash))
	require.False(t, hasher.Verify("wrong password", hash))
	require.False(t, hasher.Verify("", hash))
}

func TestHashRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	hasher, err := NewPasswordHasher(4)
	require.NoError(t, err)

	_, err = hasher.Hash("")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = hasher.Hash(strings.Repeat("p", 73))
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = hasher.Hash(strings.Repeat("p", 72))
	require.NoError(t, err)
}

func TestVerifyMalformedHash(t *testing.T) {
	t.Parallel()

	hasher, err := NewPasswordHasher(4)
	require.NoError(t, err)

	require.False(t, hasher.Verify("anything", "not a bcrypt hash"))
	require.False(t, hasher.Verify("anything", ""))
}

func TestHashesAreSalted(t *testing.T) {
	t.Parallel()

	hasher, err := NewPasswordHasher(4)
	require.NoError(t, err)

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("same password", first))
	require.True(t, hasher.Verify("same password", second))
}
