package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"user-auth-service/internal/model"
)

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// TokenSigner issues and verifies short-lived HS256 access tokens. The signing
// key is loaded once at startup and never reloaded per request; verification
// is pure CPU work and never touches storage.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type SignerOption func(*TokenSigner)

// WithSignerNow overrides the signer's time source, for expiry tests.
func WithSignerNow(now func() time.Time) SignerOption {
	return func(s *TokenSigner) {
		s.now = now
	}
}

func NewTokenSigner(secret string, ttl time.Duration, opts ...SignerOption) (*TokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("access token TTL must be positive")
	}

	signer := &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(signer)
	}
	return signer, nil
}

func (s *TokenSigner) AccessTTL() time.Duration {
	return s.ttl
}

// Issue signs an access token for the user.
func (s *TokenSigner) Issue(user *model.User) (string, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email.String(),
		"role":  string(user.Role),
		"typ":   "access",
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an access token. It fails closed: any
// structural, signature, type, or expiry failure yields the same
// ErrInvalidToken so callers get no oracle for forging.
func (s *TokenSigner) Verify(tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidToken
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != "access" {
		return nil, model.ErrInvalidToken
	}

	claims := &AccessClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if exp, expErr := claimsMap.GetExpirationTime(); expErr == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.UserID == "" {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}
