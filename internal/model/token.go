package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type FamilyStatus string

const (
	FamilyActive  FamilyStatus = "active"
	FamilyRevoked FamilyStatus = "revoked"
)

type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenRotated TokenStatus = "rotated"
	TokenRevoked TokenStatus = "revoked"
)

// TokenFamily is one continuous login lineage: every refresh token descended
// from a single successful authentication. The family is the unit of
// revocation, both for explicit logout and for reuse detection.
type TokenFamily struct {
	ID           string
	UserID       string
	Status       FamilyStatus
	RevokedAt    *time.Time
	RevokeReason string
	CreatedAt    time.Time
}

func NewTokenFamily(userID string, now time.Time) *TokenFamily {
	return &TokenFamily{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    FamilyActive,
		CreatedAt: now,
	}
}

// RefreshToken is one link in a family's chain. Within a family the ReplacedBy
// links form a single linear history: at most one active token at a time, and a
// token transitions active -> rotated exactly once, when its successor is
// created.
type RefreshToken struct {
	ID         string
	FamilyID   string
	UserID     string
	Status     TokenStatus
	ReplacedBy string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

func NewRefreshToken(familyID string, userID string, now time.Time, ttl time.Duration) *RefreshToken {
	return &RefreshToken{
		ID:        NewTokenID(),
		FamilyID:  familyID,
		UserID:    userID,
		Status:    TokenActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// NewTokenID returns an opaque 256-bit random identifier. The id doubles as
// the secret presented by clients, so it comes from crypto/rand.
func NewTokenID() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// TokenPair is the ephemeral value handed to the caller after authentication
// or rotation. It is constructed fresh on every issuance and never persisted;
// only the refresh token's server-side record lives in the store.
type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}
