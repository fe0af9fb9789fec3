package domain

import (
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// Status is the terminal outcome of an attempt.
type Status int

const (
	StatusAborted Status = iota
	StatusCommitted
)

func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	default:
		return "aborted"
	}
}

// State is a step of the executor state machine.
type State int

const (
	StateRequested State = iota
	StateBorrowed
	StateSwapping
	StateVerifying
	StateCommitted
	StateAborted
)

var stateNames = [...]string{"requested", "borrowed", "swapping", "verifying", "committed", "aborted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// CanTransition reports whether next is a legal successor of s.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateAborted {
		return true
	}
	switch s {
	case StateRequested:
		return next == StateBorrowed
	case StateBorrowed:
		return next == StateSwapping
	case StateSwapping:
		return next == StateVerifying
	case StateVerifying:
		return next == StateCommitted
	}
	return false
}

// ExecutionResult is produced exactly once per attempt.
type ExecutionResult struct {
	Status      Status
	Profit      asset.Amount
	Reason      apperror.Code
	Err         error
	State       State
	FinalAmount asset.Amount
	Obligation  RepaymentObligation
	Hops        []HopQuote
}

// Committed reports whether the attempt settled.
func (r ExecutionResult) Committed() bool {
	return r.Status == StatusCommitted
}

// Aborted builds an aborted result from err, taking the reason from its code.
func Aborted(state State, err error) ExecutionResult {
	return ExecutionResult{Status: StatusAborted, Reason: apperror.GetCode(err), Err: err, State: state}
}
