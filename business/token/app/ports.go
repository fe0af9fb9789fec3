// Package app contains port definitions for the token context.
package app

import (
	"context"

	"github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// Bank moves balances between accounts.
type Bank interface {
	BalanceOf(ctx context.Context, account domain.Account, a *asset.Asset) (asset.Amount, error)
	Transfer(ctx context.Context, from, to domain.Account, amount asset.Amount) error
}

// Minter credits new supply to an account.
type Minter interface {
	Mint(ctx context.Context, to domain.Account, amount asset.Amount) error
}
