package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

// scriptedHeads returns the scripted head numbers in order, repeating the last.
type scriptedHeads struct {
	mu      sync.Mutex
	numbers []int64
	errAt   map[int]error
	calls   int
}

func (s *scriptedHeads) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if err, ok := s.errAt[i]; ok {
		return nil, err
	}
	if i >= len(s.numbers) {
		i = len(s.numbers) - 1
	}
	return &types.Header{
		Number: big.NewInt(s.numbers[i]),
		Time:   uint64(time.Now().Unix()),
	}, nil
}

func TestPoller_WatchEmitsOnlyNewHeads(t *testing.T) {
	client := &scriptedHeads{
		numbers: []int64{100, 100, 101, 101, 103},
		errAt:   map[int]error{},
	}
	p, err := NewPoller(client, PollerConfig{Interval: time.Millisecond, BufferSize: 8}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	var got []uint64
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case b := <-heads:
			got = append(got, b.Number)
		case <-timeout:
			t.Fatalf("timed out with heads %v", got)
		}
	}

	want := []uint64{100, 101, 103}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heads = %v, want %v", got, want)
		}
	}
	if p.BlockNumber() != 103 {
		t.Errorf("BlockNumber() = %d, want 103", p.BlockNumber())
	}

	cancel()
	for range heads {
	}
}

func TestPoller_WatchFailsWhenFirstPollFails(t *testing.T) {
	client := &scriptedHeads{
		numbers: []int64{1},
		errAt:   map[int]error{0: errors.New("dial tcp: connection refused")},
	}
	p, err := NewPoller(client, DefaultPollerConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}

	_, err = p.Watch(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeEthereumRPCError {
		t.Errorf("code = %s, want %s", code, apperror.CodeEthereumRPCError)
	}
}

func TestPoller_PollErrorsDoNotStopWatch(t *testing.T) {
	client := &scriptedHeads{
		numbers: []int64{7, 7, 8},
		errAt:   map[int]error{1: errors.New("timeout")},
	}
	p, err := NewPoller(client, PollerConfig{Interval: time.Millisecond}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	heads, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	var last domain.Block
	for b := range heads {
		last = b
		if b.Number == 8 {
			cancel()
		}
	}
	if last.Number != 8 {
		t.Errorf("last head = %d, want 8", last.Number)
	}
}
