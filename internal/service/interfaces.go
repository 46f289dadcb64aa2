package service

import (
	"context"
	"fmt"
	"time"

	"user-auth-service/internal/model"
)

// UserRepository is the user persistence contract consumed by the services.
// Uniqueness of email and name is checked at write time.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, userID string, hash model.HashedPassword) error
	UpdateName(ctx context.Context, userID string, name model.UserName) error
	UpdateRole(ctx context.Context, userID string, role model.Role) error
	SetActive(ctx context.Context, userID string, active bool) error
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	List(ctx context.Context) ([]model.AuthUser, error)
}

// storageErr wraps a collaborator failure so callers can match it with
// errors.Is(err, model.ErrStorageUnavailable). The core never retries.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
}
