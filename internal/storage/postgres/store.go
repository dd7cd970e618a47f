package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
)

// Store provides Postgres persistence for indexed events.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// NewStore builds the connection pool. It does not wait for the server; see Ping.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// LoadCursor returns the stored cursor row.
func (s *Store) LoadCursor(ctx context.Context) (model.Cursor, bool, error) {
	var (
		height int64
		at     time.Time
	)
	row := s.pool.QueryRow(ctx, `SELECT last_indexed_block, last_indexed_at FROM indexer_state WHERE id = 1`)
	if err := row.Scan(&height, &at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cursor{}, false, nil
		}
		return model.Cursor{}, false, fmt.Errorf("%w: load cursor: %w", storage.ErrPersistence, err)
	}
	return model.Cursor{LastIndexedBlock: uint64(height), LastIndexedAt: at.UTC()}, true, nil
}

// AdvanceCursor upserts the cursor outside of a block transaction.
func (s *Store) AdvanceCursor(ctx context.Context, height uint64, at time.Time) error {
	return advanceCursor(ctx, s.pool, height, at)
}

// WithBlockTx runs fn inside one database transaction.
func (s *Store) WithBlockTx(ctx context.Context, fn func(storage.Tx) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&blockTx{tx: tx})
	})
	if err != nil && !errors.Is(err, storage.ErrPersistence) {
		return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
	return err
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func advanceCursor(ctx context.Context, db execer, height uint64, at time.Time) error {
	_, err := db.Exec(ctx, `
		INSERT INTO indexer_state (id, last_indexed_block, last_indexed_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET last_indexed_block = EXCLUDED.last_indexed_block, last_indexed_at = EXCLUDED.last_indexed_at
		WHERE indexer_state.last_indexed_block < EXCLUDED.last_indexed_block
	`, int64(height), at.UTC())
	if err != nil {
		return fmt.Errorf("%w: advance cursor: %w", storage.ErrPersistence, err)
	}
	return nil
}
