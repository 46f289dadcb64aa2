package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrInvalidInput
}

// User is the aggregate root for identity and credentials. The password is
// always stored hashed; deactivation is a status flag, users are never
// hard-deleted by this core.
type User struct {
	ID            string
	Email         Email
	Name          UserName
	PasswordHash  HashedPassword
	Role          Role
	Active        bool
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser creates a user at registration time. Email/name uniqueness is
// enforced by the user repository at write time.
func NewUser(email Email, name UserName, passwordHash HashedPassword, role Role) *User {
	now := time.Now().UTC()
	if role == "" {
		role = RoleUser
	}
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
