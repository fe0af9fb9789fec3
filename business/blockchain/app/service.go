package app

import (
	"context"

	"github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

// BlockchainService coordinates head tracking.
type BlockchainService struct {
	watcher HeadWatcher
	logger  logger.LoggerInterface
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(watcher HeadWatcher, log logger.LoggerInterface) *BlockchainService {
	return &BlockchainService{watcher: watcher, logger: log}
}

// LatestBlock returns the current chain head.
func (s *BlockchainService) LatestBlock(ctx context.Context) (domain.Block, error) {
	return s.watcher.LatestBlock(ctx)
}

// OnNewBlock calls fn once per new head until ctx is done or fn fails.
func (s *BlockchainService) OnNewBlock(ctx context.Context, fn func(context.Context, domain.Block) error) error {
	heads, err := s.watcher.Watch(ctx)
	if err != nil {
		return err
	}
	for b := range heads {
		if err := fn(ctx, b); err != nil {
			return err
		}
	}
	s.logger.Debug(ctx, "head watch stopped")
	return ctx.Err()
}
