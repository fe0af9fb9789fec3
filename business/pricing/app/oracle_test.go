package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flash-arbitrage/business/pricing/app"
	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/business/pricing/infra/memory"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	tokenMemory "github.com/fd1az/flash-arbitrage/business/token/infra/memory"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

func newExchange(t *testing.T) (*memory.Exchange, domain.PoolKey) {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	ex := memory.NewExchange(tokenMemory.NewBank(log), log)
	key := domain.MustPoolKey(asset.CROX, asset.CAKE)
	require.NoError(t, ex.AddPool(key, tokenDomain.DeriveAccount("pool"), domain.DefaultFeeRate))
	require.NoError(t, ex.AddLiquidity(ctx, key, asset.Units(asset.CROX, 1_000_000), asset.Units(asset.CAKE, 1_000_000)))
	return ex, key
}

func TestOracleService_QuoteIsPureAndRepeatable(t *testing.T) {
	ctx := context.Background()
	ex, key := newExchange(t)
	oracle, err := app.NewOracleService(ex, logger.NewNop())
	require.NoError(t, err)

	in := asset.Units(asset.CROX, 2_000)
	first, err := oracle.Quote(ctx, key, in)
	require.NoError(t, err)

	pool, err := ex.Pool(ctx, key)
	require.NoError(t, err)
	direct, err := domain.QuoteExactIn(pool, in)
	require.NoError(t, err)
	assert.True(t, first.Equals(direct))

	for i := 0; i < 10; i++ {
		again, err := oracle.Quote(ctx, key, in)
		require.NoError(t, err)
		assert.True(t, again.Equals(first))
	}

	after, err := ex.Pool(ctx, key)
	require.NoError(t, err)
	assert.True(t, after.Reserve0.Equals(pool.Reserve0) && after.Reserve1.Equals(pool.Reserve1),
		"quoting must not move reserves")
}

func TestOracleService_Overrides(t *testing.T) {
	ctx := context.Background()
	ex, key := newExchange(t)
	oracle, err := app.NewOracleService(ex, logger.NewNop(), app.WithAmountOutOverrides(ex))
	require.NoError(t, err)

	in := asset.Units(asset.CROX, 2_000)
	require.NoError(t, ex.SetAmountOut(in, asset.Units(asset.CAKE, 3_000)))

	out, err := oracle.Quote(ctx, key, in)
	require.NoError(t, err)
	assert.True(t, out.Equals(asset.Units(asset.CAKE, 3_000)))

	// other sizes still follow the formula
	other, err := oracle.Quote(ctx, key, asset.Units(asset.CROX, 1))
	require.NoError(t, err)
	assert.False(t, other.Equals(asset.Units(asset.CAKE, 3_000)))
}

func TestOracleService_Errors(t *testing.T) {
	ctx := context.Background()
	ex, key := newExchange(t)
	oracle, err := app.NewOracleService(ex, logger.NewNop())
	require.NoError(t, err)

	_, err = oracle.Quote(ctx, domain.MustPoolKey(asset.BUSD, asset.WBNB), asset.Units(asset.BUSD, 1))
	assert.Equal(t, apperror.CodePoolNotFound, apperror.GetCode(err))

	_, err = oracle.Quote(ctx, key, asset.Units(asset.BUSD, 1))
	assert.Equal(t, apperror.CodeInvalidAsset, apperror.GetCode(err))

	_, err = oracle.Quote(ctx, key, asset.Zero(asset.CROX))
	assert.Equal(t, apperror.CodeInvalidAmount, apperror.GetCode(err))
}
