package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"user-auth-service/internal/model"
	"user-auth-service/internal/repository"
	"user-auth-service/internal/security"
)

var reuseDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "auth_refresh_reuse_detected_total",
	Help: "Refresh tokens presented again after rotation; each is a likely theft signal.",
})

// RotationService exchanges a presented refresh token for a successor in the
// same family, or revokes the family when the token was already spent.
type RotationService struct {
	tokens     repository.TokenStore
	users      UserRepository
	signer     *security.TokenSigner
	refreshTTL time.Duration
	now        func() time.Time
}

type RotationOption func(*RotationService)

// WithRotationNow overrides the service's time source, for expiry tests.
func WithRotationNow(now func() time.Time) RotationOption {
	return func(s *RotationService) {
		s.now = now
	}
}

func NewRotationService(
	tokens repository.TokenStore,
	users UserRepository,
	signer *security.TokenSigner,
	refreshTTL time.Duration,
	opts ...RotationOption,
) (*RotationService, error) {
	if tokens == nil || users == nil || signer == nil {
		return nil, fmt.Errorf("rotation service: all collaborators are required")
	}
	if refreshTTL <= 0 {
		return nil, fmt.Errorf("rotation service: refresh TTL must be positive")
	}

	s := &RotationService{
		tokens:     tokens,
		users:      users,
		signer:     signer,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rotate runs the per-token state machine:
//
//	not found              -> ErrInvalidToken
//	expired                -> mark revoked, ErrTokenExpired
//	revoked                -> ErrTokenRevoked
//	rotated (reuse!)       -> revoke whole family, ErrReusedTokenDetected
//	active                 -> CAS to rotated + issue successor
//
// The active branch goes through the store's compare-and-rotate; the loser of
// a concurrent race re-reads the token and deterministically lands in the
// reuse branch, so the same token id never gets two successors.
func (s *RotationService) Rotate(ctx context.Context, presentedID string) (*model.TokenPair, error) {
	token, err := s.tokens.GetByID(ctx, presentedID)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, storageErr(err)
	}

	now := s.now().UTC()
	if token.IsExpired(now) {
		if err := s.tokens.MarkRevoked(ctx, token.ID); err != nil {
			return nil, storageErr(err)
		}
		return nil, model.ErrTokenExpired
	}

	switch token.Status {
	case model.TokenRevoked:
		return nil, model.ErrTokenRevoked
	case model.TokenRotated:
		return nil, s.handleReuse(ctx, token)
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, storageErr(err)
	}
	if !user.Active {
		if err := s.tokens.RevokeFamily(ctx, token.FamilyID, revokeReasonDeactivated); err != nil {
			return nil, storageErr(err)
		}
		return nil, model.ErrAccountDisabled
	}

	successor := model.NewRefreshToken(token.FamilyID, token.UserID, now, s.refreshTTL)
	rotated, err := s.tokens.CompareAndRotate(ctx, token.ID, successor)
	if err != nil {
		return nil, storageErr(err)
	}
	if !rotated {
		// Someone else transitioned this token between our read and the CAS.
		// Re-read and follow the now-current state instead of failing silently.
		current, err := s.tokens.GetByID(ctx, token.ID)
		if err != nil {
			if errors.Is(err, model.ErrTokenNotFound) {
				return nil, model.ErrInvalidToken
			}
			return nil, storageErr(err)
		}
		if current.Status == model.TokenRotated {
			return nil, s.handleReuse(ctx, current)
		}
		return nil, model.ErrTokenRevoked
	}

	access, err := s.signer.Issue(user)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: successor.ID,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
		User:         user.Public(),
	}, nil
}

// handleReuse implements the theft policy: a token that already has a
// successor was presented again, so the entire family is cut off and the
// legitimate user has to re-authenticate.
func (s *RotationService) handleReuse(ctx context.Context, token *model.RefreshToken) error {
	if err := s.tokens.RevokeFamily(ctx, token.FamilyID, revokeReasonReuse); err != nil {
		return storageErr(err)
	}

	reuseDetectedTotal.Inc()
	slog.Warn("refresh token reuse detected, family revoked",
		"family_id", token.FamilyID,
		"user_id", token.UserID,
		"token_issued_at", token.IssuedAt)
	return model.ErrReusedTokenDetected
}
