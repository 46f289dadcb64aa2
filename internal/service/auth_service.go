package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"user-auth-service/internal/model"
	"user-auth-service/internal/repository"
	"user-auth-service/internal/security"
)

const (
	revokeReasonLogout      = "logout"
	revokeReasonReuse       = "reuse detected"
	revokeReasonPassword    = "password changed"
	revokeReasonDeactivated = "account deactivated"
)

// AuthService verifies credentials and opens new token families. It is
// transport-agnostic; handlers translate its tagged errors to HTTP.
type AuthService struct {
	users      UserRepository
	tokens     repository.TokenStore
	hasher     *security.PasswordHasher
	signer     *security.TokenSigner
	refreshTTL time.Duration
	now        func() time.Time
}

type AuthOption func(*AuthService)

// WithNow overrides the service's time source, for expiry tests.
func WithNow(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func NewAuthService(
	users UserRepository,
	tokens repository.TokenStore,
	hasher *security.PasswordHasher,
	signer *security.TokenSigner,
	refreshTTL time.Duration,
	opts ...AuthOption,
) (*AuthService, error) {
	if users == nil || tokens == nil || hasher == nil || signer == nil {
		return nil, fmt.Errorf("auth service: all collaborators are required")
	}
	if refreshTTL <= 0 {
		return nil, fmt.Errorf("auth service: refresh TTL must be positive")
	}

	s := &AuthService{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		signer:     signer,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a user and logs them in, returning the first TokenPair of
// a fresh family.
func (s *AuthService) Register(ctx context.Context, rawEmail, rawName, password string) (*model.TokenPair, error) {
	email, err := model.NewEmail(rawEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email format", model.ErrInvalidInput)
	}
	name, err := model.NewUserName(rawName)
	if err != nil {
		return nil, fmt.Errorf("%w: name must be 1-100 characters", model.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := model.NewUser(email, name, hash, model.RoleUser)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, storageErr(err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return s.openFamily(ctx, user)
}

// Authenticate verifies credentials and, on success, opens a new token family.
// Unknown identifier and wrong password produce the identical error value.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*model.TokenPair, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Burn a hash comparison anyway so the miss costs the same.
			s.hasher.Verify(password, "$2a$12$invalidsaltinvalidsaltinvalidsaltinvalidsaltinvalidsm")
			return nil, model.ErrInvalidCredentials
		}
		return nil, storageErr(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, model.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, model.ErrAccountDisabled
	}

	if err := s.users.RecordLogin(ctx, user.ID, s.now().UTC()); err != nil {
		// Login bookkeeping must not block authentication.
		slog.Warn("record login failed", "user_id", user.ID, "error", err)
	}

	return s.openFamily(ctx, user)
}

// RevokeFamily is logout: it kills the family the presented refresh token
// belongs to, cutting off every device holding a token from that lineage.
// Idempotent; an unknown token is already logged out.
func (s *AuthService) RevokeFamily(ctx context.Context, refreshTokenID string) error {
	token, err := s.tokens.GetByID(ctx, refreshTokenID)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return nil
		}
		return storageErr(err)
	}

	if err := s.tokens.RevokeFamily(ctx, token.FamilyID, revokeReasonLogout); err != nil {
		return storageErr(err)
	}
	slog.Info("token family revoked", "family_id", token.FamilyID, "reason", revokeReasonLogout)
	return nil
}

// CleanupExpired deletes token rows whose expiry has long passed. Called by
// the app's janitor goroutine.
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, storageErr(err)
	}
	return deleted, nil
}

// openFamily creates a new ACTIVE family with its first ACTIVE refresh token
// (one transaction in the store) and signs the access token.
func (s *AuthService) openFamily(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	now := s.now().UTC()
	family := model.NewTokenFamily(user.ID, now)
	first := model.NewRefreshToken(family.ID, user.ID, now, s.refreshTTL)

	if err := s.tokens.CreateFamily(ctx, family, first); err != nil {
		return nil, storageErr(err)
	}

	access, err := s.signer.Issue(user)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: first.ID,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
		User:         user.Public(),
	}, nil
}
