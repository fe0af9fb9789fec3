// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/flash-arbitrage/business/blockchain/app"
	"github.com/fd1az/flash-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	HeadWatcher = di.NewToken[app.HeadWatcher]("blockchain:headWatcher")
)

// Helper functions for type-safe access
func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetHeadWatcher(c di.ServiceRegistry) app.HeadWatcher {
	return di.GetToken(c, HeadWatcher)
}
