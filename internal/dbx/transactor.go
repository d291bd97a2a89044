package dbx

import (
	"context"
	"database/sql"
	"sync"
)

// Transactor runs a unit of work atomically. Services depend on it instead
// of *sql.DB so that the in-memory storage backend can provide the same
// guarantee.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLTransactor is a Transactor backed by a database/sql pool.
type SQLTransactor struct {
	db   *sql.DB
	opts *sql.TxOptions
}

func NewSQLTransactor(db *sql.DB, opts *sql.TxOptions) *SQLTransactor {
	return &SQLTransactor{db: db, opts: opts}
}

func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, t.db, t.opts, fn)
}

// LockTransactor serializes units of work with a mutex. It is used by
// storage backends that have no transactions of their own; fn receives a
// nil DBTX.
type LockTransactor struct {
	mu sync.Mutex
}

func (t *LockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, nil)
}
