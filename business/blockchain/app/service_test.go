package app

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

type fixedHeads struct {
	blocks []domain.Block
}

func (f fixedHeads) Watch(ctx context.Context) (<-chan domain.Block, error) {
	out := make(chan domain.Block, len(f.blocks))
	for _, b := range f.blocks {
		out <- b
	}
	close(out)
	return out, nil
}

func (f fixedHeads) LatestBlock(context.Context) (domain.Block, error) {
	return f.blocks[len(f.blocks)-1], nil
}

func TestBlockchainService_OnNewBlock(t *testing.T) {
	svc := NewBlockchainService(fixedHeads{blocks: []domain.Block{{Number: 1}, {Number: 2}, {Number: 3}}}, logger.NewNop())

	var seen []uint64
	err := svc.OnNewBlock(context.Background(), func(_ context.Context, b domain.Block) error {
		seen = append(seen, b.Number)
		return nil
	})
	if err != nil {
		t.Fatalf("OnNewBlock: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("seen = %v", seen)
	}

	stop := errors.New("stop")
	seen = nil
	err = svc.OnNewBlock(context.Background(), func(_ context.Context, b domain.Block) error {
		seen = append(seen, b.Number)
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("err = %v, want stop", err)
	}
	if len(seen) != 1 {
		t.Errorf("callback ran %d times after failing", len(seen))
	}
}
