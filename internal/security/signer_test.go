package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"user-auth-service/internal/model"
)

const testSecret = "test-secret-at-least-32-characters-long"

func testUser(t *testing.T) *model.User {
	t.Helper()

	email, err := model.NewEmail("alice@example.com")
	require.NoError(t, err)
	name, err := model.NewUserName("alice")
	require.NoError(t, err)

	return model.NewUser(email, name, "$2a$12$placeholderhash", model.RoleUser)
}

func TestNewTokenSigner(t *testing.T) {
	t.Parallel()

	_, err := NewTokenSigner("  ", time.Minute)
	require.Error(t, err)

	_, err = NewTokenSigner(testSecret, 0)
	require.Error(t, err)

	signer, err := NewTokenSigner(testSecret, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, signer.AccessTTL())
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	signer, err := NewTokenSigner(testSecret, 15*time.Minute)
	require.NoError(t, err)

	user := testUser(t)
	token, err := signer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, time.Minute)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewTokenSigner(testSecret, 15*time.Minute)
	require.NoError(t, err)
	other, err := NewTokenSigner("a-completely-different-signing-secret!!", 15*time.Minute)
	require.NoError(t, err)

	token, err := signer.Issue(testUser(t))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	signer, err := NewTokenSigner(testSecret, 15*time.Minute)
	require.NoError(t, err)

	for _, input := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := signer.Verify(input)
		require.ErrorIs(t, err, model.ErrInvalidToken, "input %q", input)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	signer, err := NewTokenSigner(testSecret, 15*time.Minute,
		WithSignerNow(func() time.Time { return issuedAt }))
	require.NoError(t, err)

	token, err := signer.Issue(testUser(t))
	require.NoError(t, err)

	// Still valid one minute before expiry.
	checker, err := NewTokenSigner(testSecret, 15*time.Minute,
		WithSignerNow(func() time.Time { return issuedAt.Add(14 * time.Minute) }))
	require.NoError(t, err)
	_, err = checker.Verify(token)
	require.NoError(t, err)

	// Dead one minute after.
	checker, err = NewTokenSigner(testSecret, 15*time.Minute,
		WithSignerNow(func() time.Time { return issuedAt.Add(16 * time.Minute) }))
	require.NoError(t, err)
	_, err = checker.Verify(token)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	t.Parallel()

	signer, err := NewTokenSigner(testSecret, 15*time.Minute)
	require.NoError(t, err)

	// A correctly signed token whose typ claim is not "access" must fail.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "some-user",
		"typ": "refresh",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = signer.Verify(signed)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	signer, err := NewTokenSigner(testSecret, 15*time.Minute)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "some-user",
		"typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}
