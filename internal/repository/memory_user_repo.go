package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"user-auth-service/internal/model"
)

// MemoryUserRepository is the in-memory counterpart of UserRepository, used by
// tests and local development.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]*model.User{}}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) FindByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(identifier))
	for _, user := range r.users {
		if strings.ToLower(user.Email.String()) == lowered || strings.ToLower(user.Name.String()) == lowered {
			copied := *user
			return &copied, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email.String(), u.Email.String()) ||
			strings.EqualFold(existing.Name.String(), u.Name.String()) {
			return model.ErrUserAlreadyExists
		}
	}
	copied := *u
	r.users[copied.ID] = &copied
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, userID string, hash model.HashedPassword) error {
	return r.update(userID, func(u *model.User) {
		u.PasswordHash = hash
	})
}

func (r *MemoryUserRepository) UpdateName(_ context.Context, userID string, name model.UserName) error {
	return r.update(userID, func(u *model.User) {
		u.Name = name
	})
}

func (r *MemoryUserRepository) UpdateRole(_ context.Context, userID string, role model.Role) error {
	return r.update(userID, func(u *model.User) {
		u.Role = role
	})
}

func (r *MemoryUserRepository) SetActive(_ context.Context, userID string, active bool) error {
	return r.update(userID, func(u *model.User) {
		u.Active = active
	})
}

func (r *MemoryUserRepository) RecordLogin(_ context.Context, userID string, at time.Time) error {
	return r.update(userID, func(u *model.User) {
		loginAt := at
		u.LastLoginAt = &loginAt
	})
}

func (r *MemoryUserRepository) List(_ context.Context) ([]model.AuthUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.AuthUser, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r *MemoryUserRepository) update(userID string, apply func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	apply(user)
	user.UpdatedAt = time.Now().UTC()
	return nil
}
