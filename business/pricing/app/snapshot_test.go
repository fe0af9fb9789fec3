package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

type stubPairReader map[common.Address]error

func (s stubPairReader) ReadPair(ctx context.Context, pair common.Address) (domain.Pool, error) {
	if err := s[pair]; err != nil {
		return domain.Pool{}, err
	}
	return domain.NewPool(domain.MustPoolKey(asset.BUSD, asset.WBNB), pair, domain.DefaultFeeRate,
		asset.Units(asset.BUSD, 10), asset.Units(asset.WBNB, 1))
}

func TestSnapshotService_ContinuesPastFailures(t *testing.T) {
	good := common.HexToAddress("0x01")
	bad := common.HexToAddress("0x02")
	svc := NewSnapshotService(stubPairReader{bad: errors.New("reverted")}, logger.NewNop())

	got := svc.Snapshot(context.Background(), []common.Address{bad, good})

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Err == nil {
		t.Error("first pair should carry its error")
	}
	if got[1].Err != nil || got[1].Pool.Address != good {
		t.Errorf("second pair = %+v", got[1])
	}
}
