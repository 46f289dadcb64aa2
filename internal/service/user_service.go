package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"user-auth-service/internal/model"
	"user-auth-service/internal/repository"
	"user-auth-service/internal/security"
)

// UserService covers the profile and admin operations around the User
// aggregate. Anything that changes credentials or account status also revokes
// the user's token families.
type UserService struct {
	users  UserRepository
	tokens repository.TokenStore
	hasher *security.PasswordHasher
}

func NewUserService(users UserRepository, tokens repository.TokenStore, hasher *security.PasswordHasher) (*UserService, error) {
	if users == nil || tokens == nil || hasher == nil {
		return nil, fmt.Errorf("user service: all collaborators are required")
	}
	return &UserService{users: users, tokens: tokens, hasher: hasher}, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.AuthUser{}, err
		}
		return model.AuthUser{}, storageErr(err)
	}
	return user.Public(), nil
}

func (s *UserService) List(ctx context.Context) ([]model.AuthUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return users, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every session the user has. Other devices must log in again with
// the new password.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		return storageErr(err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storageErr(err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID, revokeReasonPassword); err != nil {
		return storageErr(err)
	}

	slog.Info("password changed, all sessions revoked", "user_id", userID)
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, rawName string) error {
	name, err := model.NewUserName(rawName)
	if err != nil {
		return fmt.Errorf("%w: name must be 1-100 characters", model.ErrInvalidInput)
	}

	err = s.users.UpdateName(ctx, userID, name)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) && !errors.Is(err, model.ErrUserAlreadyExists) {
		return storageErr(err)
	}
	return err
}

func (s *UserService) UpdateRole(ctx context.Context, userID, rawRole string) error {
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, rawRole)
	}

	err = s.users.UpdateRole(ctx, userID, role)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return storageErr(err)
	}
	return err
}

// Deactivate flips the account's status flag and revokes all its sessions.
// Users are never hard-deleted by this service.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		return storageErr(err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID, revokeReasonDeactivated); err != nil {
		return storageErr(err)
	}

	slog.Info("account deactivated", "user_id", userID)
	return nil
}
