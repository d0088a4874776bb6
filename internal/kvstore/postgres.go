package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reeltalk/reeltalk/internal/db"
)

// PostgresStore persists snapshots in a single key -> jsonb table. It
// is selected over the file store when a database URL is configured.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore constructs a snapshot store backed by PostgreSQL.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init ensures the backing table exists.
func (s *PostgresStore) Init(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS reeltalk_state (
            key TEXT PRIMARY KEY,
            value JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `)
	if err != nil {
		return fmt.Errorf("ensure reeltalk_state table: %w", err)
	}

	return nil
}

// Save upserts the JSON encoding of value under key.
func (s *PostgresStore) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO reeltalk_state (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `, key, data)
	if err != nil {
		return fmt.Errorf("upsert snapshot %q: %w", key, err)
	}

	return nil
}

// Load reads the row for key and decodes it into dest. Absent rows and
// undecodable values both report ErrNotFound.
func (s *PostgresStore) Load(ctx context.Context, key string, dest any) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var data []byte
	row := conn.QueryRow(ctx, `SELECT value FROM reeltalk_state WHERE key = $1`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select snapshot %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return ErrNotFound
	}

	return nil
}

// Delete removes the row for key if present.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM reeltalk_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}

	return nil
}

var _ Store = (*PostgresStore)(nil)
