// Package repository implements the booking engine's Store interfaces on
// MySQL.  Transactions are carried in the context: WithTx opens one and every
// query helper picks it up transparently, so engine code composes ledger and
// lifecycle steps without threading *sql.Tx through each call.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"
    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/booking"
)

// MySQL server error numbers surfaced as retryable contention.
const (
    mysqlErrLockWaitTimeout = 1205
    mysqlErrDeadlock        = 1213
)

// Store implements booking.Store backed by a MySQL database.
type Store struct {
    db  *sql.DB
    log zerolog.Logger
}

// NewStore returns a Store bound to the given database handle.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
    return &Store{db: db, log: log}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

type txKey struct{}

// WithTx runs fn inside a transaction.  When ctx already carries one the
// call nests into it and commit/rollback stay with the outermost owner.
// Lock wait timeouts and deadlocks roll back and surface as
// booking.ErrConcurrentModification so the engine can retry.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
    if txFromContext(ctx) != nil {
        return fn(ctx)
    }
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
        _ = tx.Rollback()
        return err
    }
    if err := tx.Commit(); err != nil {
        return wrap("commit tx", err)
    }
    return nil
}

func txFromContext(ctx context.Context) *sql.Tx {
    tx, _ := ctx.Value(txKey{}).(*sql.Tx)
    return tx
}

// runner is the common surface of *sql.DB and *sql.Tx used by the queries.
type runner interface {
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// q returns the executor for ctx: the carried transaction when present,
// otherwise the pool.  ForUpdate queries must only ever see a transaction;
// the engine guarantees that by calling them inside WithTx.
func (s *Store) q(ctx context.Context) runner {
    if tx := txFromContext(ctx); tx != nil {
        return tx
    }
    return s.db
}

// wrap classifies a driver error.  Not-found and contention collapse onto
// the engine's sentinels; everything else keeps the operation context.
func wrap(op string, err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return booking.ErrNotFound
    }
    var mysqlErr *mysql.MySQLError
    if errors.As(err, &mysqlErr) {
        switch mysqlErr.Number {
        case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
            return fmt.Errorf("%s: %w", op, booking.ErrConcurrentModification)
        }
    }
    return fmt.Errorf("%s: %w", op, err)
}
