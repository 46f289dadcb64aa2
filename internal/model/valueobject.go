package model

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`)

const (
	userNameMinLength = 1
	userNameMaxLength = 100
)

// Email is a validated, normalized (lowercase, trimmed) email address.
type Email string

func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(normalized) {
		return "", ErrInvalidInput
	}
	return Email(normalized), nil
}

func (e Email) String() string {
	return string(e)
}

// UserName is a validated display name, trimmed and length-constrained.
type UserName string

func NewUserName(raw string) (UserName, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < userNameMinLength || len(trimmed) > userNameMaxLength {
		return "", ErrInvalidInput
	}
	return UserName(trimmed), nil
}

func (n UserName) String() string {
	return string(n)
}

// HashedPassword holds a password hash. It never contains plaintext; comparison
// goes through the password hasher, never through string equality.
type HashedPassword string

func NewHashedPassword(hash string) (HashedPassword, error) {
	if strings.TrimSpace(hash) == "" {
		return "", ErrInvalidInput
	}
	return HashedPassword(hash), nil
}

func (p HashedPassword) String() string {
	return string(p)
}
