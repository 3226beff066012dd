package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// failOnNthExecUoW injects an error on the Nth ExecContext call within a
// transaction. Calls are counted from 1; reads pass through uncounted.
type failOnNthExecUoW struct {
	db     *sql.DB
	failOn int32
	err    error
}

func (u *failOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.failOn, err: u.err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
