// Package db provides the PostgreSQL connection pool used by the
// key-value snapshot store.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool abstracts the pgx connection pool to make testing easier.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Connect initialises a PostgreSQL connection pool for the snapshot
// store. The workload is a handful of whole-row upserts, so the pool is
// kept deliberately small.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
