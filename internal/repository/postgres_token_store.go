package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"user-auth-service/internal/model"
)

// db is the subset of pgxpool.Pool the stores need. pgxmock satisfies it too.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresTokenStore struct {
	db db
}

func NewPostgresTokenStore(db db) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

func (s *PostgresTokenStore) CreateFamily(ctx context.Context, family *model.TokenFamily, first *model.RefreshToken) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create family: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO token_families (id, user_id, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		family.ID, family.UserID, family.Status, family.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert token family: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, family_id, user_id, status, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		first.ID, first.FamilyID, first.UserID, first.Status, first.IssuedAt, first.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert first refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create family: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) GetByID(ctx context.Context, id string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	var replacedBy *string
	err := s.db.QueryRow(ctx,
		`SELECT id, family_id, user_id, status, replaced_by, issued_at, expires_at
		 FROM refresh_tokens WHERE id = $1`, id).
		Scan(&t.ID, &t.FamilyID, &t.UserID, &t.Status, &replacedBy, &t.IssuedAt, &t.ExpiresAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if replacedBy != nil {
		t.ReplacedBy = *replacedBy
	}
	return &t, nil
}

func (s *PostgresTokenStore) GetFamily(ctx context.Context, id string) (*model.TokenFamily, error) {
	var f model.TokenFamily
	var reason *string
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, status, revoked_at, revoke_reason, created_at
		 FROM token_families WHERE id = $1`, id).
		Scan(&f.ID, &f.UserID, &f.Status, &f.RevokedAt, &reason, &f.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrFamilyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token family: %w", err)
	}
	if reason != nil {
		f.RevokeReason = *reason
	}
	return &f, nil
}

// CompareAndRotate does the rotation CAS: the UPDATE only matches while the
// token is still active, so of two concurrent rotations exactly one inserts a
// successor and the other sees zero rows and backs out.
func (s *PostgresTokenStore) CompareAndRotate(ctx context.Context, tokenID string, successor *model.RefreshToken) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin rotate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET status = $3, replaced_by = $2
		 WHERE id = $1 AND status = $4`,
		tokenID, successor.ID, model.TokenRotated, model.TokenActive)
	if err != nil {
		return false, fmt.Errorf("mark token rotated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, family_id, user_id, status, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		successor.ID, successor.FamilyID, successor.UserID, successor.Status,
		successor.IssuedAt, successor.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("insert successor token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit rotate: %w", err)
	}
	return true, nil
}

func (s *PostgresTokenStore) MarkRevoked(ctx context.Context, tokenID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE refresh_tokens SET status = $2 WHERE id = $1 AND status <> $2`,
		tokenID, model.TokenRevoked)
	if err != nil {
		return fmt.Errorf("mark token revoked: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) RevokeFamily(ctx context.Context, familyID string, reason string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin revoke family: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE refresh_tokens SET status = $2 WHERE family_id = $1 AND status <> $2`,
		familyID, model.TokenRevoked)
	if err != nil {
		return fmt.Errorf("revoke family tokens: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE token_families SET status = $2, revoked_at = $3, revoke_reason = $4
		 WHERE id = $1 AND status = $5`,
		familyID, model.FamilyRevoked, time.Now().UTC(), reason, model.FamilyActive)
	if err != nil {
		return fmt.Errorf("revoke family: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit revoke family: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) RevokeAllForUser(ctx context.Context, userID string, reason string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin revoke user tokens: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE refresh_tokens SET status = $2 WHERE user_id = $1 AND status <> $2`,
		userID, model.TokenRevoked)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE token_families SET status = $2, revoked_at = $3, revoke_reason = $4
		 WHERE user_id = $1 AND status = $5`,
		userID, model.FamilyRevoked, time.Now().UTC(), reason, model.FamilyActive)
	if err != nil {
		return fmt.Errorf("revoke user families: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit revoke user tokens: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
