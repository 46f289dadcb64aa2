// Package security holds the two cryptographic capabilities of the service:
// one-way password hashing and access-token signing. Both are configured once
// at construction and safe for concurrent use.
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"user-auth-service/internal/model"
)

// bcrypt silently truncates beyond 72 bytes; reject instead.
const maxPasswordLength = 72

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Hash produces a salted bcrypt hash of the plaintext. The salt is embedded in
// the output; callers never supply one.
func (h *PasswordHasher) Hash(plaintext string) (model.HashedPassword, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: password cannot be empty", model.ErrInvalidInput)
	}
	if len(plaintext) > maxPasswordLength {
		return "", fmt.Errorf("%w: password exceeds %d bytes", model.ErrInvalidInput, maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return model.HashedPassword(hash), nil
}

// Verify reports whether plaintext matches the stored hash. It never returns
// an error on mismatch; malformed hashes also just verify false.
func (h *PasswordHasher) Verify(plaintext string, hash model.HashedPassword) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
