package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"user-auth-service/internal/model"
	"user-auth-service/internal/repository"
	"user-auth-service/internal/security"
)

const (
	testSecret   = "unit-test-signing-secret-32-chars!!"
	testPassword = "correct horse battery staple"
)

type fixture struct {
	users  *repository.MemoryUserRepository
	tokens *repository.MemoryTokenStore
	hasher *security.PasswordHasher
	signer *security.TokenSigner

	auth     *AuthService
	rotation *RotationService
	profile  *UserService

	clock time.Time
}

// newFixture wires the services against in-memory stores with a frozen clock.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	hasher, err := security.NewPasswordHasher(4)
	require.NoError(t, err)
	signer, err := security.NewTokenSigner(testSecret, 15*time.Minute, security.WithSignerNow(now))
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	tokens := repository.NewMemoryTokenStore()

	auth, err := NewAuthService(users, tokens, hasher, signer, 168*time.Hour, WithNow(now))
	require.NoError(t, err)
	rotation, err := NewRotationService(tokens, users, signer, 168*time.Hour, WithRotationNow(now))
	require.NoError(t, err)
	profile, err := NewUserService(users, tokens, hasher)
	require.NoError(t, err)

	return &fixture{
		users: users, tokens: tokens, hasher: hasher, signer: signer,
		auth: auth, rotation: rotation, profile: profile,
		clock: clock,
	}
}

func (f *fixture) registerUser(t *testing.T, email, name string) *model.TokenPair {
	t.Helper()

	pair, err := f.auth.Register(context.Background(), email, name, testPassword)
	require.NoError(t, err)
	return pair
}

func TestRegister(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	require.NotEmpty(t, pair.AccessToken)
	require.Len(t, pair.RefreshToken, 64)
	require.Equal(t, "Bearer", pair.TokenType)
	require.EqualValues(t, 15*60, pair.ExpiresIn)
	require.Equal(t, "alice@example.com", pair.User.Email)
	require.Equal(t, "user", pair.User.Role)
	require.True(t, pair.User.Active)

	// The refresh token is the first link of a live family.
	token, err := f.tokens.GetByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, model.TokenActive, token.Status)
	require.Equal(t, f.clock.Add(168*time.Hour), token.ExpiresAt)

	family, err := f.tokens.GetFamily(context.Background(), token.FamilyID)
	require.NoError(t, err)
	require.Equal(t, model.FamilyActive, family.Status)
	require.Equal(t, pair.User.ID, family.UserID)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), "not-an-email", "alice", testPassword)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.auth.Register(context.Background(), "alice@example.com", "  ", testPassword)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.auth.Register(context.Background(), "alice@example.com", "alice", "")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.registerUser(t, "alice@example.com", "alice")

	_, err := f.auth.Register(context.Background(), "alice@example.com", "someone else", testPassword)
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	_, err = f.auth.Register(context.Background(), "other@example.com", "alice", testPassword)
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.registerUser(t, "alice@example.com", "alice")

	// Either identifier works, case-insensitively.
	byEmail, err := f.auth.Authenticate(context.Background(), "Alice@Example.com", testPassword)
	require.NoError(t, err)
	byName, err := f.auth.Authenticate(context.Background(), "alice", testPassword)
	require.NoError(t, err)

	// Every login opens its own family.
	first, err := f.tokens.GetByID(context.Background(), byEmail.RefreshToken)
	require.NoError(t, err)
	second, err := f.tokens.GetByID(context.Background(), byName.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.FamilyID, second.FamilyID)

	// Login time was recorded.
	user, err := f.users.FindByID(context.Background(), byEmail.User.ID)
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	require.Equal(t, f.clock, *user.LastLoginAt)
}

func TestAuthenticateCollapsesFailureModes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.registerUser(t, "alice@example.com", "alice")

	// Unknown identifier and wrong password are indistinguishable.
	_, unknownErr := f.auth.Authenticate(context.Background(), "nobody@example.com", testPassword)
	_, wrongErr := f.auth.Authenticate(context.Background(), "alice@example.com", "wrong password")

	require.ErrorIs(t, unknownErr, model.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, model.ErrInvalidCredentials)
	require.Equal(t, unknownErr, wrongErr)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	require.NoError(t, f.users.SetActive(context.Background(), pair.User.ID, false))

	_, err := f.auth.Authenticate(context.Background(), "alice@example.com", testPassword)
	require.ErrorIs(t, err, model.ErrAccountDisabled)
}

func TestRevokeFamilyLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	require.NoError(t, f.auth.RevokeFamily(context.Background(), pair.RefreshToken))

	token, err := f.tokens.GetByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, model.TokenRevoked, token.Status)

	family, err := f.tokens.GetFamily(context.Background(), token.FamilyID)
	require.NoError(t, err)
	require.Equal(t, model.FamilyRevoked, family.Status)
	require.Equal(t, "logout", family.RevokeReason)

	// Logging out twice, or with a token that never existed, is fine.
	require.NoError(t, f.auth.RevokeFamily(context.Background(), pair.RefreshToken))
	require.NoError(t, f.auth.RevokeFamily(context.Background(), "no-such-token"))
}

func TestCleanupExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	deleted, err := f.auth.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)

	// Push an already-expired token into the store directly.
	family := model.NewTokenFamily(pair.User.ID, f.clock.Add(-200*time.Hour))
	stale := model.NewRefreshToken(family.ID, pair.User.ID, f.clock.Add(-200*time.Hour), 168*time.Hour)
	require.NoError(t, f.tokens.CreateFamily(context.Background(), family, stale))

	deleted, err = f.auth.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = f.tokens.GetByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	err := f.profile.ChangePassword(context.Background(), pair.User.ID, "wrong password", "new password 123")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	require.NoError(t, f.profile.ChangePassword(context.Background(), pair.User.ID, testPassword, "new password 123"))

	// All sessions are revoked; the old refresh token is dead.
	token, err := f.tokens.GetByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, model.TokenRevoked, token.Status)

	// Only the new password logs in.
	_, err = f.auth.Authenticate(context.Background(), "alice@example.com", testPassword)
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = f.auth.Authenticate(context.Background(), "alice@example.com", "new password 123")
	require.NoError(t, err)
}

func TestDeactivate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	require.NoError(t, f.profile.Deactivate(context.Background(), pair.User.ID))

	token, err := f.tokens.GetByID(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, model.TokenRevoked, token.Status)

	_, err = f.auth.Authenticate(context.Background(), "alice@example.com", testPassword)
	require.ErrorIs(t, err, model.ErrAccountDisabled)
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	require.NoError(t, f.profile.UpdateRole(context.Background(), pair.User.ID, "admin"))

	user, err := f.users.FindByID(context.Background(), pair.User.ID)
	require.NoError(t, err)
	require.True(t, user.IsAdmin())

	err = f.profile.UpdateRole(context.Background(), pair.User.ID, "superuser")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	err = f.profile.UpdateRole(context.Background(), "no-such-user", "admin")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pair := f.registerUser(t, "alice@example.com", "alice")

	require.NoError(t, f.profile.UpdateProfile(context.Background(), pair.User.ID, "alice cooper"))

	user, err := f.users.FindByID(context.Background(), pair.User.ID)
	require.NoError(t, err)
	require.Equal(t, "alice cooper", user.Name.String())

	err = f.profile.UpdateProfile(context.Background(), pair.User.ID, "   ")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}
