// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// PoolReader resolves pools by key. Reserves are read at call time.
type PoolReader interface {
	Pool(ctx context.Context, key domain.PoolKey) (domain.Pool, error)
	Pools(ctx context.Context) ([]domain.Pool, error)
}

// AmountOutOverrides supplies pinned swap outputs, the way a mock router
// answers getAmountsOut with preset values.
type AmountOutOverrides interface {
	AmountOut(key domain.PoolKey, in asset.Amount) (asset.Amount, bool)
}

// Balances is the token bank pools settle against.
type Balances interface {
	BalanceOf(ctx context.Context, account tokenDomain.Account, a *asset.Asset) (asset.Amount, error)
	Transfer(ctx context.Context, from, to tokenDomain.Account, amount asset.Amount) error
	Mint(ctx context.Context, to tokenDomain.Account, amount asset.Amount) error
}

// PairReader reads live V2 pair state from a chain node.
type PairReader interface {
	ReadPair(ctx context.Context, pair common.Address) (domain.Pool, error)
}
