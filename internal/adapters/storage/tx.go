package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLDB is the query surface used by all stores. *sql.DB, *sql.Tx, *TimedDB
// and the transactions TimedDB hands out all satisfy it, so a store bound to a
// transaction behaves exactly like one bound to the pool.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*sql.Tx)(nil)
)

// Tx is an open transaction.
type Tx interface {
	SQLDB
	Commit() error
	Rollback() error
}

// TxBeginner starts transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

// SQLBeginner adapts a plain *sql.DB to TxBeginner.
type SQLBeginner struct {
	DB *sql.DB
}

// BeginTx starts a transaction on the wrapped pool.
func (b SQLBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := b.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// TxRunner runs a function inside one database transaction.
type TxRunner struct {
	db TxBeginner
}

// NewTxRunner creates a runner over db.
func NewTxRunner(db TxBeginner) *TxRunner {
	return &TxRunner{db: db}
}

// InTx begins a transaction, calls fn with it and commits if fn succeeds.
// Any error from fn (or a panic) rolls everything back.
// PRE: fn only uses q for database access
// POST: Either every statement fn issued is committed or none is
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, q SQLDB) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
