// Package dbx holds the database plumbing shared by repositories: the DBTX
// handle satisfied by both *sql.DB and *sql.Tx, the WithTx coordinator and
// driver-independent constraint error detection.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is one atomic unit of work. Every repository used inside it must be
// built from tx, never from the outer *sql.DB.
type TxFunc func(ctx context.Context, tx DBTX) error

// WithTx begins a transaction, runs fn with the transactional handle and
// commits when fn returns nil. Any error from fn rolls everything back and is
// returned unchanged; a panic rolls back and is rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return repomanager.Tags(tx).DecrementOrDelete(ctx, tagID)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
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
