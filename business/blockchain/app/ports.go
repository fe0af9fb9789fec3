// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/fd1az/flash-arbitrage/business/blockchain/domain"
)

// HeadWatcher reports new chain heads.
type HeadWatcher interface {
	// Watch emits every new head until ctx is done, then closes the channel.
	Watch(ctx context.Context) (<-chan domain.Block, error)

	// LatestBlock retrieves the most recent head.
	LatestBlock(ctx context.Context) (domain.Block, error)
}
