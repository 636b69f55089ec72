package pg

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/result"
)

// TxManager runs a function inside one database transaction.
//
// The transaction commits iff fn returns nil. A returned error or a panic
// rolls it back; the panic is re-raised after the rollback.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error
}

type bunTxManager struct {
	db *bun.DB
}

// NewTxManager returns a TxManager backed by db.
func NewTxManager(db *bun.DB) TxManager {
	return &bunTxManager{db: db}
}

func (m *bunTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	return m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// errRollback marks a transaction aborted because fn returned an Err result.
var errRollback = errors.New("rollback requested by callback") //nolint:gochecknoglobals // sentinel

// RunInTransaction runs fn inside a transaction and returns its Result.
//
// An Err result from fn rolls the transaction back and is returned unchanged.
// Failures of the transaction itself (begin, commit) are returned as a
// database error.
func RunInTransaction[T any](
	ctx context.Context,
	m TxManager,
	fn func(ctx context.Context, tx bun.IDB) result.Result[T],
) result.Result[T] {
	var out result.Result[T]

	err := m.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		out = fn(ctx, tx)
		if out.IsErr() {
			return errRollback
		}
		return nil
	})

	switch {
	case err == nil:
		return out
	case errors.Is(err, errRollback):
		return out
	default:
		return result.Err[T](apperr.Database("Transaction failed", err, nil))
	}
}
