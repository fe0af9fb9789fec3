package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	tokenMemory "github.com/fd1az/flash-arbitrage/business/token/infra/memory"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

type fixture struct {
	bank   *tokenMemory.Bank
	ex     *Exchange
	key    domain.PoolKey
	pool   tokenDomain.Account
	trader tokenDomain.Account
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	f := fixture{
		bank:   tokenMemory.NewBank(log),
		key:    domain.MustPoolKey(asset.BUSD, asset.CROX),
		pool:   tokenDomain.DeriveAccount("pool:BUSD/CROX"),
		trader: tokenDomain.DeriveAccount("trader"),
	}
	f.ex = NewExchange(f.bank, log)

	require.NoError(t, f.ex.AddPool(f.key, f.pool, domain.DefaultFeeRate))
	require.NoError(t, f.ex.AddLiquidity(ctx, f.key, asset.Units(asset.BUSD, 1_000_000), asset.Units(asset.CROX, 1_000_000)))
	require.NoError(t, f.bank.Mint(ctx, f.trader, asset.Units(asset.BUSD, 1_000)))
	return f
}

func (f fixture) balance(t *testing.T, who tokenDomain.Account, a *asset.Asset) asset.Amount {
	t.Helper()
	amt, err := f.bank.BalanceOf(context.Background(), who, a)
	require.NoError(t, err)
	return amt
}

func TestExchange_SwapMatchesQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	before, err := f.ex.Pool(ctx, f.key)
	require.NoError(t, err)
	in := asset.Units(asset.BUSD, 1_000)
	want, err := domain.QuoteExactIn(before, in)
	require.NoError(t, err)

	receipt, err := f.ex.Swap(ctx, f.trader, f.key, in)
	require.NoError(t, err)

	assert.True(t, receipt.Out.Equals(want), "out %s, want %s", receipt.Out, want)
	assert.True(t, f.balance(t, f.trader, asset.CROX).Equals(want))
	assert.True(t, f.balance(t, f.trader, asset.BUSD).IsZero())

	after, err := f.ex.Pool(ctx, f.key)
	require.NoError(t, err)
	busd, _ := after.Reserve(asset.BUSD)
	assert.True(t, busd.Equals(asset.Units(asset.BUSD, 1_001_000)))
}

func TestExchange_PinnedAmountOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := asset.Units(asset.BUSD, 1_000)
	require.NoError(t, f.ex.SetAmountOut(in, asset.Units(asset.CROX, 2_000)))

	pinned, ok := f.ex.AmountOut(f.key, in)
	require.True(t, ok)
	assert.True(t, pinned.Equals(asset.Units(asset.CROX, 2_000)))

	receipt, err := f.ex.Swap(ctx, f.trader, f.key, in)
	require.NoError(t, err)
	assert.True(t, receipt.Out.Equals(asset.Units(asset.CROX, 2_000)))

	f.ex.ClearAmountsOut()
	_, ok = f.ex.AmountOut(f.key, in)
	assert.False(t, ok)
}

func TestExchange_PinnedAmountOutBeyondReserves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := asset.Units(asset.BUSD, 1_000)
	require.NoError(t, f.ex.SetAmountOut(in, asset.Units(asset.CROX, 1_000_000)))

	_, err := f.ex.Swap(ctx, f.trader, f.key, in)
	assert.Equal(t, apperror.CodeInsufficientLiquidity, apperror.GetCode(err))
	assert.True(t, f.balance(t, f.trader, asset.BUSD).Equals(in), "input must stay with the trader")
}

func TestExchange_Reverse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	receipt, err := f.ex.Swap(ctx, f.trader, f.key, asset.Units(asset.BUSD, 500))
	require.NoError(t, err)
	require.NoError(t, f.ex.Reverse(ctx, receipt))

	assert.True(t, f.balance(t, f.trader, asset.BUSD).Equals(asset.Units(asset.BUSD, 1_000)))
	assert.True(t, f.balance(t, f.trader, asset.CROX).IsZero())
	assert.True(t, f.balance(t, f.pool, asset.CROX).Equals(asset.Units(asset.CROX, 1_000_000)))
}

func TestExchange_FailedPayoutRefundsInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.bank.FailNextTransferFrom(f.pool, errors.New("pair locked"))

	_, err := f.ex.Swap(ctx, f.trader, f.key, asset.Units(asset.BUSD, 10))
	assert.Equal(t, apperror.CodeTransferFailed, apperror.GetCode(err))
	assert.True(t, f.balance(t, f.trader, asset.BUSD).Equals(asset.Units(asset.BUSD, 1_000)))
	assert.True(t, f.balance(t, f.pool, asset.BUSD).Equals(asset.Units(asset.BUSD, 1_000_000)))
}

func TestExchange_Registry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ex.Pool(ctx, domain.MustPoolKey(asset.CAKE, asset.WBNB))
	assert.Equal(t, apperror.CodePoolNotFound, apperror.GetCode(err))

	err = f.ex.AddPool(domain.MustPoolKey(asset.CROX, asset.BUSD), tokenDomain.DeriveAccount("dup"), 30)
	assert.Equal(t, apperror.CodeInvalidState, apperror.GetCode(err))

	err = f.ex.SetAmountOut(asset.Units(asset.CAKE, 1), asset.Units(asset.WBNB, 1))
	assert.Equal(t, apperror.CodePoolNotFound, apperror.GetCode(err))

	pools, err := f.ex.Pools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, f.pool.Address, pools[0].Address)
}
