// Package blockchain implements the blockchain bounded context: chain head tracking.
package blockchain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/flash-arbitrage/business/blockchain/app"
	blockchainDI "github.com/fd1az/flash-arbitrage/business/blockchain/di"
	"github.com/fd1az/flash-arbitrage/business/blockchain/infra/ethereum"
	"github.com/fd1az/flash-arbitrage/internal/config"
	"github.com/fd1az/flash-arbitrage/internal/di"
	"github.com/fd1az/flash-arbitrage/internal/logger"
	"github.com/fd1az/flash-arbitrage/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// HeadWatcher (private) - dials the node on first use
	di.RegisterToken(c, blockchainDI.HeadWatcher, func(sr di.ServiceRegistry) app.HeadWatcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		pollCfg := ethereum.DefaultPollerConfig()
		if cfg.Chain.PollInterval > 0 {
			pollCfg.Interval = cfg.Chain.PollInterval
		}
		poller, err := ethereum.NewPoller(client, pollCfg, log)
		if err != nil {
			panic("failed to create head poller: " + err.Error())
		}
		return poller
	})

	// BlockchainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewBlockchainService(blockchainDI.GetHeadWatcher(sr), log)
	})

	return nil
}

// Startup does not touch the node: offline commands never need it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Debug(ctx, "blockchain module started", "rpc", mono.Config().Chain.RPCURL)
	return nil
}
