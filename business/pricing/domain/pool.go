// Package domain contains the core domain types for the pricing context:
// constant-product pools and the quote math over them.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// BasisPointsDenominator is 100%.
const BasisPointsDenominator = 10_000

// DefaultFeeRate is the PancakeSwap V2 style 0.3% swap fee.
const DefaultFeeRate FeeRate = 30

// FeeRate is a fee in basis points.
type FeeRate uint32

// Validate rejects rates of 100% or more.
func (f FeeRate) Validate() error {
	if f >= BasisPointsDenominator {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("fee rate must be below 10000 bps"))
	}
	return nil
}

// Retained returns the share of an input kept after the fee, in bps.
func (f FeeRate) Retained() *big.Int {
	return big.NewInt(int64(BasisPointsDenominator - f))
}

func (f FeeRate) Bps() *big.Int {
	return big.NewInt(int64(f))
}

// PairID is the comparable identity of an unordered asset pair.
type PairID struct {
	Token0 asset.AssetID
	Token1 asset.AssetID
}

// PoolKey names a pool by its unordered asset pair. Token0 is always the
// asset with the lower id, so {A,B} and {B,A} produce the same key.
type PoolKey struct {
	token0 *asset.Asset
	token1 *asset.Asset
}

// NewPoolKey builds a normalised key. Both assets must be set and distinct.
func NewPoolKey(x, y *asset.Asset) (PoolKey, error) {
	if x == nil || y == nil {
		return PoolKey{}, apperror.New(apperror.CodeInvalidAsset, apperror.WithContext("nil asset in pool key"))
	}
	if x.Equals(y) {
		return PoolKey{}, apperror.New(apperror.CodeInvalidAsset,
			apperror.WithContext("pool needs two distinct assets, got "+x.Symbol()+" twice"))
	}
	if y.ID().Less(x.ID()) {
		x, y = y, x
	}
	return PoolKey{token0: x, token1: y}, nil
}

// MustPoolKey is NewPoolKey for statically known pairs.
func MustPoolKey(x, y *asset.Asset) PoolKey {
	k, err := NewPoolKey(x, y)
	if err != nil {
		panic(err)
	}
	return k
}

func (k PoolKey) Token0() *asset.Asset { return k.token0 }
func (k PoolKey) Token1() *asset.Asset { return k.token1 }

// ID returns the map key for registries.
func (k PoolKey) ID() PairID {
	if k.IsZero() {
		return PairID{}
	}
	return PairID{Token0: k.token0.ID(), Token1: k.token1.ID()}
}

func (k PoolKey) IsZero() bool {
	return k.token0 == nil || k.token1 == nil
}

// Contains reports whether a is one of the pool's assets.
func (k PoolKey) Contains(a *asset.Asset) bool {
	if k.IsZero() || a == nil {
		return false
	}
	return k.token0.Equals(a) || k.token1.Equals(a)
}

// Other returns the counterpart of a in the pair.
func (k PoolKey) Other(a *asset.Asset) (*asset.Asset, error) {
	switch {
	case k.IsZero() || a == nil:
		return nil, apperror.New(apperror.CodeInvalidAsset, apperror.WithContext("empty pool key"))
	case k.token0.Equals(a):
		return k.token1, nil
	case k.token1.Equals(a):
		return k.token0, nil
	}
	return nil, apperror.New(apperror.CodeInvalidAsset,
		apperror.WithContext(a.Symbol()+" is not in pool "+k.String()))
}

// Shared returns the single asset two pools have in common.
func (k PoolKey) Shared(other PoolKey) (*asset.Asset, bool) {
	var shared []*asset.Asset
	for _, a := range []*asset.Asset{k.token0, k.token1} {
		if other.Contains(a) {
			shared = append(shared, a)
		}
	}
	if len(shared) != 1 {
		return nil, false
	}
	return shared[0], true
}

func (k PoolKey) Equals(other PoolKey) bool {
	return k.ID() == other.ID()
}

// String returns "TOKEN0/TOKEN1".
func (k PoolKey) String() string {
	if k.IsZero() {
		return "?/?"
	}
	return k.token0.Symbol() + "/" + k.token1.Symbol()
}

// Pool is a point-in-time view of a constant-product pool.
type Pool struct {
	Key       PoolKey
	Address   common.Address
	Fee       FeeRate
	Reserve0  asset.Amount
	Reserve1  asset.Amount
	UpdatedAt time.Time
}

// NewPool builds a pool view from reserves given in any order.
func NewPool(key PoolKey, addr common.Address, fee FeeRate, ra, rb asset.Amount) (Pool, error) {
	if err := fee.Validate(); err != nil {
		return Pool{}, err
	}
	if key.token0.Equals(rb.Asset()) {
		ra, rb = rb, ra
	}
	if !key.token0.Equals(ra.Asset()) || !key.token1.Equals(rb.Asset()) {
		return Pool{}, apperror.New(apperror.CodeInvalidAsset,
			apperror.WithContext("reserves do not match pool "+key.String()))
	}
	return Pool{
		Key:       key,
		Address:   addr,
		Fee:       fee,
		Reserve0:  ra,
		Reserve1:  rb,
		UpdatedAt: time.Now(),
	}, nil
}

// Reserve returns the reserve held of a.
func (p Pool) Reserve(a *asset.Asset) (asset.Amount, error) {
	switch {
	case a == nil:
	case p.Key.token0.Equals(a):
		return p.Reserve0, nil
	case p.Key.token1.Equals(a):
		return p.Reserve1, nil
	}
	return asset.Amount{}, apperror.New(apperror.CodeInvalidAsset,
		apperror.WithContext("asset is not in pool "+p.Key.String()))
}

// ReservesFor returns (reserveIn, reserveOut) for a trade selling in.
func (p Pool) ReservesFor(in *asset.Asset) (asset.Amount, asset.Amount, error) {
	rin, err := p.Reserve(in)
	if err != nil {
		return asset.Amount{}, asset.Amount{}, err
	}
	out, _ := p.Key.Other(in)
	rout, _ := p.Reserve(out)
	return rin, rout, nil
}

// SpotPrice is the marginal price of base in the other asset, ignoring fee.
func (p Pool) SpotPrice(base *asset.Asset) (asset.Price, error) {
	rin, rout, err := p.ReservesFor(base)
	if err != nil {
		return asset.Price{}, err
	}
	return asset.NewPriceFromReserves(rin, rout, p.UpdatedAt), nil
}
