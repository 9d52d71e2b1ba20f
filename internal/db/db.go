package db

import (
	"context"
	"database/sql"
	"time"
)

// Store is the relational store facade combining all sub-interfaces.
type Store interface {
	Pinger
	Querier
	Transactor
	Close() error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Querier runs SQL written with ? placeholders; implementations rebind them
// for their dialect.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Transactor runs fn inside a single transaction, committing when fn returns nil.
type Transactor interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// Cache is the key-value facade backing the embedding cache.
type Cache interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
