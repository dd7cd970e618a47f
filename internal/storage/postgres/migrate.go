package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"vaultIndexer/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	// The pool owns the connections; db holds no idle ones of its own.
	db := stdlib.OpenDBFromPool(s.pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	logger.Info("schema ready", zap.Int64("version", version), zap.Int("applied", len(results)))
	return nil
}

// CountRows returns the row count of one of the indexer tables.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func knownTable(table string) bool {
	if table == storage.TableEvents {
		return true
	}
	for _, t := range storage.DerivedTables {
		if t == table {
			return true
		}
	}
	return false
}
