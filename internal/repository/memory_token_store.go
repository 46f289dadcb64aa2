package repository

import (
	"context"
	"sync"
	"time"

	"user-auth-service/internal/model"
)

var _ TokenStore = (*MemoryTokenStore)(nil)

// MemoryTokenStore is the reference TokenStore used in tests and local
// development. A single mutex gives it the same atomicity guarantees the
// Postgres store gets from transactions.
type MemoryTokenStore struct {
	mu       sync.Mutex
	families map[string]*model.TokenFamily
	tokens   map[string]*model.RefreshToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		families: map[string]*model.TokenFamily{},
		tokens:   map[string]*model.RefreshToken{},
	}
}

func (s *MemoryTokenStore) CreateFamily(_ context.Context, family *model.TokenFamily, first *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := *family
	t := *first
	s.families[f.ID] = &f
	s.tokens[t.ID] = &t
	return nil
}

func (s *MemoryTokenStore) GetByID(_ context.Context, id string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, model.ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (s *MemoryTokenStore) GetFamily(_ context.Context, id string) (*model.TokenFamily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	family, ok := s.families[id]
	if !ok {
		return nil, model.ErrFamilyNotFound
	}
	copied := *family
	return &copied, nil
}

func (s *MemoryTokenStore) CompareAndRotate(_ context.Context, tokenID string, successor *model.RefreshToken) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok || token.Status != model.TokenActive {
		return false, nil
	}

	token.Status = model.TokenRotated
	token.ReplacedBy = successor.ID
	copied := *successor
	s.tokens[copied.ID] = &copied
	return true, nil
}

func (s *MemoryTokenStore) MarkRevoked(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.tokens[tokenID]; ok && token.Status != model.TokenRevoked {
		token.Status = model.TokenRevoked
	}
	return nil
}

func (s *MemoryTokenStore) RevokeFamily(_ context.Context, familyID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revokeFamilyLocked(familyID, reason)
	return nil
}

func (s *MemoryTokenStore) RevokeAllForUser(_ context.Context, userID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, family := range s.families {
		if family.UserID == userID {
			s.revokeFamilyLocked(id, reason)
		}
	}
	return nil
}

func (s *MemoryTokenStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, token := range s.tokens {
		if !token.ExpiresAt.After(before) {
			delete(s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryTokenStore) revokeFamilyLocked(familyID string, reason string) {
	for _, token := range s.tokens {
		if token.FamilyID == familyID && token.Status != model.TokenRevoked {
			token.Status = model.TokenRevoked
		}
	}

	family, ok := s.families[familyID]
	if !ok || family.Status != model.FamilyActive {
		return
	}
	now := time.Now().UTC()
	family.Status = model.FamilyRevoked
	family.RevokedAt = &now
	family.RevokeReason = reason
}
