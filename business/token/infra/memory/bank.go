// Package memory implements an in-process token bank.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/flash-arbitrage/business/token/app"
	"github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

const meterName = "token.bank"

var (
	_ app.Bank   = (*Bank)(nil)
	_ app.Minter = (*Bank)(nil)
)

type balanceKey struct {
	holder common.Address
	asset  asset.AssetID
}

// Bank keeps balances per (account, asset) and a log of every transfer.
type Bank struct {
	mu        sync.RWMutex
	balances  map[balanceKey]asset.Amount
	accounts  map[common.Address]domain.Account
	transfers []domain.Transfer
	seq       uint64
	failNext  map[common.Address]error

	logger         logger.LoggerInterface
	transfersTotal metric.Int64Counter
}

// NewBank creates an empty bank.
func NewBank(log logger.LoggerInterface) *Bank {
	counter, _ := otel.Meter(meterName).Int64Counter(
		"token_transfers_total",
		metric.WithDescription("Completed balance transfers"),
	)
	return &Bank{
		balances:       make(map[balanceKey]asset.Amount),
		accounts:       make(map[common.Address]domain.Account),
		failNext:       make(map[common.Address]error),
		logger:         log,
		transfersTotal: counter,
	}
}

// BalanceOf returns the balance of a held by account, zero if never credited.
func (b *Bank) BalanceOf(ctx context.Context, account domain.Account, a *asset.Asset) (asset.Amount, error) {
	if a == nil {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidAsset, apperror.WithContext("nil asset"))
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balance(account.Address, a), nil
}

// Mint credits amount to an account.
func (b *Bank) Mint(ctx context.Context, to domain.Account, amount asset.Amount) error {
	if amount.Asset() == nil {
		return apperror.New(apperror.CodeInvalidAsset, apperror.WithContext("nil asset"))
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := b.balance(to.Address, amount.Asset()).Add(amount)
	if err != nil {
		return apperror.New(apperror.CodeAmountOverflow,
			apperror.WithContext("mint "+amount.String()+" to "+to.String()),
			apperror.WithCause(err))
	}
	b.set(to, next)
	return nil
}

// Transfer moves amount from one account to another. Zero transfers succeed
// without logging.
func (b *Bank) Transfer(ctx context.Context, from, to domain.Account, amount asset.Amount) error {
	if amount.Asset() == nil {
		return apperror.New(apperror.CodeTransferFailed, apperror.WithContext("nil asset"))
	}
	if amount.IsZero() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err, ok := b.failNext[from.Address]; ok {
		delete(b.failNext, from.Address)
		return apperror.New(apperror.CodeTransferFailed,
			apperror.WithContext(from.String()+" -> "+to.String()),
			apperror.WithCause(err))
	}

	src := b.balance(from.Address, amount.Asset())
	remaining, err := src.Sub(amount)
	if err != nil {
		return apperror.New(apperror.CodeTransferFailed,
			apperror.WithContext(from.String()+" holds "+src.String()+", needs "+amount.String()),
			apperror.WithCause(err))
	}
	credited, err := b.balance(to.Address, amount.Asset()).Add(amount)
	if err != nil {
		return apperror.New(apperror.CodeTransferFailed,
			apperror.WithContext(to.String()),
			apperror.WithCause(err))
	}

	b.set(from, remaining)
	b.set(to, credited)
	b.seq++
	b.transfers = append(b.transfers, domain.Transfer{Seq: b.seq, From: from, To: to, Amount: amount})

	if b.transfersTotal != nil {
		b.transfersTotal.Add(ctx, 1)
	}
	b.logger.Debug(ctx, "transfer",
		"from", from.String(),
		"to", to.String(),
		"amount", amount.String(),
	)
	return nil
}

// FailNextTransferFrom makes the next transfer out of account fail with err.
// It stands in for a token contract rejecting a transfer.
func (b *Bank) FailNextTransferFrom(account domain.Account, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[account.Address] = err
}

// Transfers returns the transfer log in order.
func (b *Bank) Transfers() []domain.Transfer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Transfer, len(b.transfers))
	copy(out, b.transfers)
	return out
}

// TransfersSince returns transfers with Seq > seq.
func (b *Bank) TransfersSince(seq uint64) []domain.Transfer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := sort.Search(len(b.transfers), func(i int) bool { return b.transfers[i].Seq > seq })
	out := make([]domain.Transfer, len(b.transfers)-i)
	copy(out, b.transfers[i:])
	return out
}

// LastSeq returns the sequence number of the latest transfer.
func (b *Bank) LastSeq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// Holding is one non-zero balance.
type Holding struct {
	Account domain.Account
	Amount  asset.Amount
}

// Snapshot returns every non-zero balance ordered by account then asset.
func (b *Bank) Snapshot() []Holding {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Holding, 0, len(b.balances))
	for k, amt := range b.balances {
		if amt.IsZero() {
			continue
		}
		out = append(out, Holding{Account: b.accounts[k.holder], Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Account.Address, out[j].Account.Address
		if ai != aj {
			return ai.Cmp(aj) < 0
		}
		return out[i].Amount.Asset().ID().Less(out[j].Amount.Asset().ID())
	})
	return out
}

// Supply returns the sum of all balances of a.
func (b *Bank) Supply(a *asset.Asset) asset.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := asset.Zero(a)
	for k, amt := range b.balances {
		if k.asset == a.ID() {
			total = total.MustAdd(amt)
		}
	}
	return total
}

func (b *Bank) balance(holder common.Address, a *asset.Asset) asset.Amount {
	if amt, ok := b.balances[balanceKey{holder: holder, asset: a.ID()}]; ok {
		return amt
	}
	return asset.Zero(a)
}

func (b *Bank) set(account domain.Account, amt asset.Amount) {
	b.balances[balanceKey{holder: account.Address, asset: amt.Asset().ID()}] = amt
	if _, ok := b.accounts[account.Address]; !ok || account.Label != "" {
		b.accounts[account.Address] = account
	}
}
