package pancake

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

// fakePair answers eth_call for a single V2 pair.
type fakePair struct {
	mu       sync.Mutex
	abi      abi.ABI
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
	calls    map[string]int
	err      error
}

func newFakePair(t *testing.T, token0, token1 common.Address, r0, r1 *big.Int) *fakePair {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(PairABI))
	require.NoError(t, err)
	return &fakePair{abi: parsed, token0: token0, token1: token1, reserve0: r0, reserve1: r1, calls: map[string]int{}}
}

func (f *fakePair) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	for name, m := range f.abi.Methods {
		if !bytes.Equal(msg.Data[:4], m.ID) {
			continue
		}
		f.calls[name]++
		switch name {
		case "token0":
			return m.Outputs.Pack(f.token0)
		case "token1":
			return m.Outputs.Pack(f.token1)
		case "getReserves":
			return m.Outputs.Pack(f.reserve0, f.reserve1, uint32(1700000000))
		}
	}
	return nil, errors.New("unknown selector")
}

func newTestReader(t *testing.T, caller Caller) *Reader {
	t.Helper()
	r, err := NewReader(caller, asset.DefaultRegistry(), Config{
		ChainID: asset.ChainIDBSC,
		Fee:     domain.FeeRate(25),
	}, logger.NewNop())
	require.NoError(t, err)
	return r
}

func TestReader_ReadPair(t *testing.T) {
	r0 := new(big.Int).Mul(big.NewInt(300_000), asset.CAKE.Unit())
	r1 := new(big.Int).Mul(big.NewInt(600_000), asset.BUSD.Unit())
	fake := newFakePair(t, asset.AddrCAKEBSC, asset.AddrBUSDBSC, r0, r1)
	reader := newTestReader(t, fake)
	pair := common.HexToAddress(PairCAKEBUSD)

	pool, err := reader.ReadPair(context.Background(), pair)
	require.NoError(t, err)

	assert.Equal(t, "CAKE/BUSD", pool.Key.String())
	assert.Equal(t, pair, pool.Address)
	assert.Equal(t, domain.FeeRate(25), pool.Fee)
	assert.Equal(t, 0, pool.Reserve0.Raw().Cmp(r0))
	assert.Equal(t, 0, pool.Reserve1.Raw().Cmp(r1))

	price, err := pool.SpotPrice(asset.CAKE)
	require.NoError(t, err)
	assert.Equal(t, "2", price.Rate().String())

	// token addresses come from the cache on the second read
	_, err = reader.ReadPair(context.Background(), pair)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls["token0"])
	assert.Equal(t, 1, fake.calls["token1"])
	assert.Equal(t, 2, fake.calls["getReserves"])
}

func TestReader_UnknownToken(t *testing.T) {
	unknown := common.HexToAddress("0x00000000000000000000000000000000000000b0")
	fake := newFakePair(t, unknown, asset.AddrBUSDBSC, big.NewInt(1), big.NewInt(1))
	reader := newTestReader(t, fake)

	_, err := reader.ReadPair(context.Background(), common.HexToAddress(PairBUSDWBNB))
	assert.Equal(t, apperror.CodeInvalidAsset, apperror.GetCode(err))
}

func TestReader_RPCFailureTripsBreaker(t *testing.T) {
	fake := newFakePair(t, asset.AddrCAKEBSC, asset.AddrBUSDBSC, big.NewInt(1), big.NewInt(1))
	fake.err = errors.New("connection refused")
	reader := newTestReader(t, fake)
	pair := common.HexToAddress(PairCAKEBUSD)

	_, err := reader.ReadPair(context.Background(), pair)
	assert.Equal(t, apperror.CodeContractCallFailed, apperror.GetCode(err))

	for i := 0; i < 5; i++ {
		_, err = reader.ReadPair(context.Background(), pair)
	}
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
}
