// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// Quoter prices one hop without touching pool state.
type Quoter interface {
	Quote(ctx context.Context, pool pricingDomain.PoolKey, in asset.Amount) (asset.Amount, error)
}

// PoolDirectory resolves pools by asset pair.
type PoolDirectory interface {
	Pool(ctx context.Context, key pricingDomain.PoolKey) (pricingDomain.Pool, error)
	Pools(ctx context.Context) ([]pricingDomain.Pool, error)
}

// Exchange executes swaps against pools.
type Exchange interface {
	// Swap sells in from trader into pool and pays the output back to trader.
	Swap(ctx context.Context, trader tokenDomain.Account, pool pricingDomain.PoolKey, in asset.Amount) (pricingDomain.SwapReceipt, error)

	// Reverse undoes a receipt returned by Swap.
	Reverse(ctx context.Context, receipt pricingDomain.SwapReceipt) error
}

// Bank moves balances between accounts.
type Bank interface {
	BalanceOf(ctx context.Context, account tokenDomain.Account, a *asset.Asset) (asset.Amount, error)
	Transfer(ctx context.Context, from, to tokenDomain.Account, amount asset.Amount) error
}

// CommittedEvent is emitted once per settled attempt.
type CommittedEvent struct {
	RunID      string
	Base       *asset.Asset
	Loan       asset.Amount
	Fee        asset.Amount
	Final      asset.Amount
	Profit     asset.Amount
	Path       string
	Hops       []domain.HopQuote
	Initiator  tokenDomain.Account
	OccurredAt time.Time
}

// AbortedEvent is emitted once per rejected attempt.
type AbortedEvent struct {
	RunID      string
	Base       *asset.Asset
	Loan       asset.Amount
	Path       string
	Reason     apperror.Code
	State      domain.State
	Err        error
	OccurredAt time.Time
}

// EventSink observes terminal outcomes. Implementations must not block for long:
// they run on the executor's goroutine after the outcome is final.
type EventSink interface {
	Committed(ctx context.Context, ev CommittedEvent)
	Aborted(ctx context.Context, ev AbortedEvent)
}

// Sinks fans events out to several sinks in order.
type Sinks []EventSink

func (s Sinks) Committed(ctx context.Context, ev CommittedEvent) {
	for _, sink := range s {
		sink.Committed(ctx, ev)
	}
}

func (s Sinks) Aborted(ctx context.Context, ev AbortedEvent) {
	for _, sink := range s {
		sink.Aborted(ctx, ev)
	}
}

type nopSink struct{}

func (nopSink) Committed(context.Context, CommittedEvent) {}
func (nopSink) Aborted(context.Context, AbortedEvent)     {}
