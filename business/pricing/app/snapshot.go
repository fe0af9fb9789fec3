package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

// PairSnapshot is the outcome of reading one live pair.
type PairSnapshot struct {
	Address common.Address
	Pool    domain.Pool
	Err     error
}

// SnapshotService reads live reserves for a set of pair contracts.
type SnapshotService struct {
	reader PairReader
	logger logger.LoggerInterface
}

// NewSnapshotService creates a SnapshotService.
func NewSnapshotService(reader PairReader, log logger.LoggerInterface) *SnapshotService {
	return &SnapshotService{reader: reader, logger: log}
}

// Snapshot reads every pair in order. A failing pair is reported in its
// entry and does not stop the others.
func (s *SnapshotService) Snapshot(ctx context.Context, pairs []common.Address) []PairSnapshot {
	out := make([]PairSnapshot, 0, len(pairs))
	for _, addr := range pairs {
		pool, err := s.reader.ReadPair(ctx, addr)
		if err != nil {
			s.logger.Warn(ctx, "pair snapshot failed", "pair", addr.Hex(), "error", err)
		}
		out = append(out, PairSnapshot{Address: addr, Pool: pool, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return out
}
