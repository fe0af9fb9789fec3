package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flash-arbitrage/internal/apperror"
)

func TestUnitOfWork_RollbackRunsInReverse(t *testing.T) {
	ctx := context.Background()
	uow := Begin()

	var order []string
	for _, name := range []string{"disburse", "swap 0", "swap 1"} {
		name := name
		uow.Record(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	require.Equal(t, 3, uow.Len())

	require.NoError(t, uow.Rollback(ctx))
	assert.Equal(t, []string{"swap 1", "swap 0", "disburse"}, order)

	// a second rollback is a no-op
	require.NoError(t, uow.Rollback(ctx))
	assert.Len(t, order, 3)
}

func TestUnitOfWork_RollbackContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	uow := Begin()

	var ran []string
	boom := errors.New("boom")
	uow.Record("a", func(context.Context) error { ran = append(ran, "a"); return nil })
	uow.Record("b", func(context.Context) error { ran = append(ran, "b"); return boom })
	uow.Record("c", func(context.Context) error { ran = append(ran, "c"); return nil })

	err := uow.Rollback(ctx)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeRollbackFailed, apperror.GetCode(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"c", "b", "a"}, ran)
}

func TestUnitOfWork_RollbackIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	uow := Begin()
	uow.Record("undo", func(ctx context.Context) error { return ctx.Err() })
	cancel()

	assert.NoError(t, uow.Rollback(ctx))
}

func TestUnitOfWork_CommitIsFinal(t *testing.T) {
	ctx := context.Background()
	uow := Begin()

	undone := false
	uow.Record("disburse", func(context.Context) error { undone = true; return nil })
	require.NoError(t, uow.Commit())

	err := uow.Rollback(ctx)
	assert.Equal(t, apperror.CodeInvalidState, apperror.GetCode(err))
	assert.False(t, undone, "committed unit rolled back")

	assert.Error(t, uow.Commit())
	assert.Panics(t, func() {
		uow.Record("late", func(context.Context) error { return nil })
	})
}

func TestUnitOfWork_RecordAfterRollbackPanics(t *testing.T) {
	ctx := context.Background()
	uow := Begin()
	require.NoError(t, uow.Rollback(ctx))
	assert.Panics(t, func() {
		uow.Record("late", func(context.Context) error { return nil })
	})
}
