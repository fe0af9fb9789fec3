// Package memory implements an in-process constant-product exchange whose
// reserves are balances of pool accounts in the token bank.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fd1az/flash-arbitrage/business/pricing/app"
	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

var (
	_ app.PoolReader         = (*Exchange)(nil)
	_ app.AmountOutOverrides = (*Exchange)(nil)
)

type listing struct {
	key     domain.PoolKey
	account tokenDomain.Account
	fee     domain.FeeRate
}

type overrideKey struct {
	pair  domain.PairID
	input asset.AssetID
	in    string
}

// Exchange is a registry of pools keyed by asset pair that also executes
// swaps. Pool state lives in the bank, so every reserve change is a transfer.
type Exchange struct {
	mu        sync.Mutex
	bank      app.Balances
	pools     map[domain.PairID]listing
	overrides map[overrideKey]asset.Amount
	seq       uint64
	logger    logger.LoggerInterface
}

// NewExchange creates an empty exchange settling against bank.
func NewExchange(bank app.Balances, log logger.LoggerInterface) *Exchange {
	return &Exchange{
		bank:      bank,
		pools:     make(map[domain.PairID]listing),
		overrides: make(map[overrideKey]asset.Amount),
		logger:    log,
	}
}

// AddPool lists a pool. The account holds its reserves.
func (e *Exchange) AddPool(key domain.PoolKey, account tokenDomain.Account, fee domain.FeeRate) error {
	if err := fee.Validate(); err != nil {
		return err
	}
	if key.IsZero() {
		return apperror.New(apperror.CodeInvalidAsset, apperror.WithContext("empty pool key"))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.pools[key.ID()]; ok {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("pool "+key.String()+" already listed"))
	}
	e.pools[key.ID()] = listing{key: key, account: account, fee: fee}
	return nil
}

// AddLiquidity mints reserves into a listed pool.
func (e *Exchange) AddLiquidity(ctx context.Context, key domain.PoolKey, a, b asset.Amount) error {
	l, err := e.listing(key)
	if err != nil {
		return err
	}
	for _, amt := range []asset.Amount{a, b} {
		if !key.Contains(amt.Asset()) {
			return apperror.New(apperror.CodeInvalidAsset,
				apperror.WithContext(amt.String()+" does not belong to "+key.String()))
		}
		if err := e.bank.Mint(ctx, l.account, amt); err != nil {
			return err
		}
	}
	e.logger.Info(ctx, "liquidity added",
		"pool", key.String(),
		"amount_a", a.String(),
		"amount_b", b.String(),
	)
	return nil
}

// PoolAccount returns the account holding a pool's reserves.
func (e *Exchange) PoolAccount(key domain.PoolKey) (tokenDomain.Account, error) {
	l, err := e.listing(key)
	if err != nil {
		return tokenDomain.Account{}, err
	}
	return l.account, nil
}

// Pool returns the pool with reserves read from the bank now.
func (e *Exchange) Pool(ctx context.Context, key domain.PoolKey) (domain.Pool, error) {
	l, err := e.listing(key)
	if err != nil {
		return domain.Pool{}, err
	}
	return e.snapshot(ctx, l)
}

// Pools returns every listed pool ordered by key.
func (e *Exchange) Pools(ctx context.Context) ([]domain.Pool, error) {
	e.mu.Lock()
	listings := make([]listing, 0, len(e.pools))
	for _, l := range e.pools {
		listings = append(listings, l)
	}
	e.mu.Unlock()

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].key.String() < listings[j].key.String()
	})

	out := make([]domain.Pool, 0, len(listings))
	for _, l := range listings {
		p, err := e.snapshot(ctx, l)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SetAmountOut pins the output of selling exactly in for out's asset.
// Pinned outputs still have to be paid from the pool's reserves.
func (e *Exchange) SetAmountOut(in, out asset.Amount) error {
	key, err := domain.NewPoolKey(in.Asset(), out.Asset())
	if err != nil {
		return err
	}
	if _, err := e.listing(key); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides[newOverrideKey(key, in)] = out
	return nil
}

// ClearAmountsOut drops every pinned output.
func (e *Exchange) ClearAmountsOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides = make(map[overrideKey]asset.Amount)
}

// AmountOut returns a pinned output, if any.
func (e *Exchange) AmountOut(key domain.PoolKey, in asset.Amount) (asset.Amount, bool) {
	if in.Asset() == nil {
		return asset.Amount{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.overrides[newOverrideKey(key, in)]
	return out, ok
}

// Swap sells in from trader into the pool and pays the output back.
// Either both legs happen or neither does.
func (e *Exchange) Swap(ctx context.Context, trader tokenDomain.Account, key domain.PoolKey, in asset.Amount) (domain.SwapReceipt, error) {
	l, err := e.listing(key)
	if err != nil {
		return domain.SwapReceipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.snapshot(ctx, l)
	if err != nil {
		return domain.SwapReceipt{}, err
	}

	out, pinned := e.overrides[newOverrideKey(key, in)]
	if pinned {
		err = domain.CheckAmountOut(pool, in, out)
	} else {
		out, err = domain.QuoteExactIn(pool, in)
	}
	if err != nil {
		return domain.SwapReceipt{}, err
	}

	if err := e.bank.Transfer(ctx, trader, l.account, in); err != nil {
		return domain.SwapReceipt{}, err
	}
	if err := e.bank.Transfer(ctx, l.account, trader, out); err != nil {
		if undoErr := e.bank.Transfer(ctx, l.account, trader, in); undoErr != nil {
			e.logger.Error(ctx, "swap input refund failed",
				"pool", key.String(),
				"trader", trader.String(),
				"error", undoErr,
			)
		}
		return domain.SwapReceipt{}, err
	}

	e.seq++
	receipt := domain.SwapReceipt{
		ID:          e.seq,
		Pool:        key,
		PoolAccount: l.account,
		Trader:      trader,
		In:          in,
		Out:         out,
	}

	e.logger.Debug(ctx, "swap",
		"id", receipt.ID,
		"pool", key.String(),
		"in", in.String(),
		"out", out.String(),
		"pinned", pinned,
	)
	return receipt, nil
}

// Reverse undoes a swap by sending both legs back.
func (e *Exchange) Reverse(ctx context.Context, r domain.SwapReceipt) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.bank.Transfer(ctx, r.Trader, r.PoolAccount, r.Out); err != nil {
		return err
	}
	if err := e.bank.Transfer(ctx, r.PoolAccount, r.Trader, r.In); err != nil {
		return err
	}

	e.logger.Debug(ctx, "swap reversed", "id", r.ID, "pool", r.Pool.String())
	return nil
}

func (e *Exchange) listing(key domain.PoolKey) (listing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.pools[key.ID()]
	if !ok {
		return listing{}, apperror.NotFound(apperror.CodePoolNotFound, key.String())
	}
	return l, nil
}

func (e *Exchange) snapshot(ctx context.Context, l listing) (domain.Pool, error) {
	r0, err := e.bank.BalanceOf(ctx, l.account, l.key.Token0())
	if err != nil {
		return domain.Pool{}, err
	}
	r1, err := e.bank.BalanceOf(ctx, l.account, l.key.Token1())
	if err != nil {
		return domain.Pool{}, err
	}
	return domain.NewPool(l.key, l.account.Address, l.fee, r0, r1)
}

func newOverrideKey(key domain.PoolKey, in asset.Amount) overrideKey {
	return overrideKey{pair: key.ID(), input: in.Asset().ID(), in: in.Raw().String()}
}
