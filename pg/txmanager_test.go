package pg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/result"
)

type fakeTxManager struct {
	beginErr  error
	commitErr error

	committed  bool
	rolledBack bool
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}

	defer func() {
		if p := recover(); p != nil {
			m.rolledBack = true
			panic(p)
		}
	}()

	if err := fn(ctx, nil); err != nil {
		m.rolledBack = true
		return err
	}
	if m.commitErr != nil {
		m.rolledBack = true
		return m.commitErr
	}
	m.committed = true
	return nil
}

func TestRunInTransactionCommitsOk(t *testing.T) {
	m := &fakeTxManager{}

	res := pg.RunInTransaction(t.Context(), m, func(context.Context, bun.IDB) result.Result[int] {
		return result.Ok(42)
	})

	require.True(t, res.IsOk())
	assert.Equal(t, 42, res.Unwrap())
	assert.True(t, m.committed)
	assert.False(t, m.rolledBack)
}

func TestRunInTransactionRollsBackErr(t *testing.T) {
	m := &fakeTxManager{}
	businessErr := apperr.NotFound("Thumbnail", "abc")

	res := pg.RunInTransaction(t.Context(), m, func(context.Context, bun.IDB) result.Result[int] {
		return result.Err[int](businessErr)
	})

	require.True(t, res.IsErr())
	assert.Equal(t, businessErr, res.UnwrapErr())
	assert.True(t, m.rolledBack)
	assert.False(t, m.committed)
}

func TestRunInTransactionWrapsNativeFailures(t *testing.T) {
	tests := []struct {
		name string
		m    *fakeTxManager
	}{
		{name: "begin", m: &fakeTxManager{beginErr: errors.New("connection refused")}},
		{name: "commit", m: &fakeTxManager{commitErr: errors.New("serialization failure")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pg.RunInTransaction(t.Context(), tt.m, func(context.Context, bun.IDB) result.Result[int] {
				return result.Ok(1)
			})

			require.True(t, res.IsErr())
			assert.True(t, apperr.Is(res.UnwrapErr(), apperr.KindDatabase))
			assert.Equal(t, "Transaction failed", res.UnwrapErr().Error())
			assert.NotEmpty(t, errx.AsErrorX(res.UnwrapErr()).Details()["error"])
		})
	}
}

func TestRunInTransactionPanicRollsBack(t *testing.T) {
	m := &fakeTxManager{}

	assert.PanicsWithValue(t, "boom", func() {
		pg.RunInTransaction(t.Context(), m, func(context.Context, bun.IDB) result.Result[int] {
			panic("boom")
		})
	})
	assert.True(t, m.rolledBack)
	assert.False(t, m.committed)
}
