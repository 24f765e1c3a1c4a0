// Package dbx holds the small DB plumbing shared by repositories: the DBTX
// interface implemented by both *sql.DB and *sql.Tx, and a commit-once
// transaction wrapper.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories use. Both *sql.DB and
// *sql.Tx satisfy it, so the same repository code runs inside and outside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn against it, and commits exactly once on
// success. On error or panic the transaction is rolled back; panics are
// rethrown. The cascade deletion path relies on this: all row removals of one
// delete request happen on the tx handle and become visible atomically.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
