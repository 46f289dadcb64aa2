package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var requiredTables = []string{"users", "token_families", "refresh_tokens"}

// EnsureSchema applies the schema when any required table is missing. The
// statements are idempotent, so applying them on a populated database is
// harmless.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	missing, err := missingTables(ctx, pool)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		slog.Debug("database schema up to date")
		return nil
	}

	slog.Info("applying database schema", "missing_tables", missing)

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	for _, entry := range entries {
		sql, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("applying migration %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", "file", entry.Name())
	}
	return nil
}

func missingTables(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	var missing []string
	for _, table := range requiredTables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
