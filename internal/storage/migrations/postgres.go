package migrations

import (
	"context"
	"fmt"

	"trade-journal-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded schema in file order. Every
// file is idempotent, so running on an existing database is a no-op.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
