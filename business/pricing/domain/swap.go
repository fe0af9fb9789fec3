package domain

import (
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// SwapReceipt records an executed swap so it can be reversed.
type SwapReceipt struct {
	ID          uint64
	Pool        PoolKey
	PoolAccount tokenDomain.Account
	Trader      tokenDomain.Account
	In          asset.Amount
	Out         asset.Amount
}
