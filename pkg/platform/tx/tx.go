// Package tx carries a SQL transaction through context so stores joined in
// one unit of work share it, and provides runners that open that unit.
package tx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "kycgate/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

const defaultTimeout = 5 * time.Second

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sqlx.Tx)
	return tx, ok
}

// Runner executes fn as one all-or-nothing unit of work.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// SQLRunner runs units of work inside a database transaction.
type SQLRunner struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSQLRunner creates a runner backed by db.
func NewSQLRunner(db *sqlx.DB) *SQLRunner {
	return &SQLRunner{db: db, timeout: defaultTimeout}
}

// RunInTx begins a transaction, passes it to fn through context and commits
// when fn succeeds. Any error from fn rolls the transaction back.
func (r *SQLRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := From(ctx); ok {
		// already inside a unit of work
		return fn(ctx)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LockRunner serializes units of work with a mutex. It backs the in-memory
// stores, which have no rollback; callers validate before mutating.
type LockRunner struct {
	mu sync.Mutex
}

// NewLockRunner creates an in-memory runner.
func NewLockRunner() *LockRunner {
	return &LockRunner{}
}

// RunInTx runs fn while holding the runner's lock.
func (r *LockRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
