package repository

import (
	"context"
	"time"

	"user-auth-service/internal/model"
)

// TokenStore persists refresh tokens and their families. It is the single
// shared mutable resource of the rotation path and the sole mutator of token
// status. Implementations must make CompareAndRotate and RevokeFamily atomic
// with respect to concurrent callers on the same token/family.
type TokenStore interface {
	// CreateFamily persists a new family together with its first token in one
	// transaction, so a login can never leave a family without a token.
	CreateFamily(ctx context.Context, family *model.TokenFamily, first *model.RefreshToken) error

	// GetByID returns the token record or model.ErrTokenNotFound.
	GetByID(ctx context.Context, id string) (*model.RefreshToken, error)

	// GetFamily returns the family record or model.ErrFamilyNotFound.
	GetFamily(ctx context.Context, id string) (*model.TokenFamily, error)

	// CompareAndRotate atomically transitions the token from active to rotated,
	// records successor.ID as its replacement, and inserts the successor. It
	// returns false (and performs no writes) when the token is no longer
	// active; the caller must then re-read the token and take the reuse branch.
	CompareAndRotate(ctx context.Context, tokenID string, successor *model.RefreshToken) (bool, error)

	// MarkRevoked revokes a single token regardless of prior status. Used when
	// an expired token is presented. No-op for tokens already revoked.
	MarkRevoked(ctx context.Context, tokenID string) error

	// RevokeFamily revokes the family and every non-revoked token in it, in one
	// transaction. Idempotent.
	RevokeFamily(ctx context.Context, familyID string, reason string) error

	// RevokeAllForUser revokes every active family the user owns. Used on
	// password change and deactivation.
	RevokeAllForUser(ctx context.Context, userID string, reason string) error

	// DeleteExpired removes token rows that expired before the cutoff and
	// returns how many were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
