package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fd1az/flash-arbitrage/internal/apperror"
)

// Compensation undoes one recorded mutation.
type Compensation func(ctx context.Context) error

type step struct {
	name string
	undo Compensation
}

type uowState int

const (
	uowOpen uowState = iota
	uowCommitted
	uowRolledBack
)

// UnitOfWork records compensations for every mutation of a run so that an
// aborted run can be undone in reverse order. A unit is single use.
type UnitOfWork struct {
	mu    sync.Mutex
	steps []step
	state uowState
}

// Begin opens a unit of work.
func Begin() *UnitOfWork {
	return &UnitOfWork{}
}

// Record registers the compensation for a mutation that has already happened.
// It panics once the unit is committed or rolled back.
func (u *UnitOfWork) Record(name string, undo Compensation) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != uowOpen {
		panic(fmt.Sprintf("unit of work: record %q after it was finished", name))
	}
	u.steps = append(u.steps, step{name: name, undo: undo})
}

// Len returns the number of recorded compensations.
func (u *UnitOfWork) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.steps)
}

// Commit makes every recorded mutation final.
func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != uowOpen {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("commit on a finished unit of work"))
	}
	u.state = uowCommitted
	u.steps = nil
	return nil
}

// Rollback runs compensations newest first. A failing compensation does not
// stop the others; all failures are joined into a ROLLBACK_FAILED error.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	if u.state != uowOpen {
		state := u.state
		u.mu.Unlock()
		if state == uowRolledBack {
			return nil
		}
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("rollback on a committed unit of work"))
	}
	u.state = uowRolledBack
	steps := u.steps
	u.steps = nil
	u.mu.Unlock()

	// compensations must run even if the caller's context is already done
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", steps[i].name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return apperror.Internal(apperror.CodeRollbackFailed,
		fmt.Sprintf("%d of %d compensations failed", len(errs), len(steps)), errors.Join(errs...))
}
