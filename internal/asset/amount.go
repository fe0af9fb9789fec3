package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNilRaw          = errors.New("asset: nil raw value")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: cannot operate on different assets")
	ErrNegativeResult  = errors.New("asset: operation would result in negative amount")
	ErrOverflow        = errors.New("asset: amount exceeds 256 bits")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
	ErrDivisionByZero  = errors.New("asset: division by zero")
	ErrUnknownAsset    = errors.New("asset: unknown asset")
)

// MaxUint256 is the largest representable amount, the width of an EVM word.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Amount is an immutable quantity of an asset in its smallest unit.
// Values are always within [0, MaxUint256].
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount creates an Amount from a raw value. It panics on a nil asset or a
// value outside [0, MaxUint256]; use TryNewAmount for untrusted input.
func NewAmount(asset *Asset, raw *big.Int) Amount {
	a, err := TryNewAmount(asset, raw)
	if err != nil {
		panic(err)
	}
	return a
}

// TryNewAmount is NewAmount returning an error instead of panicking.
func TryNewAmount(asset *Asset, raw *big.Int) (Amount, error) {
	switch {
	case asset == nil:
		return Amount{}, ErrNilAsset
	case raw == nil:
		return Amount{}, ErrNilRaw
	case raw.Sign() < 0:
		return Amount{}, ErrNegativeAmount
	case raw.Cmp(MaxUint256) > 0:
		return Amount{}, ErrOverflow
	}
	return Amount{raw: new(big.Int).Set(raw), asset: asset}, nil
}

// Zero creates a zero Amount for the given asset.
func Zero(asset *Asset) Amount {
	return NewAmount(asset, big.NewInt(0))
}

// NewAmountFromInt64 creates an Amount from an int64 raw value.
func NewAmountFromInt64(asset *Asset, raw int64) Amount {
	return NewAmount(asset, big.NewInt(raw))
}

// Units creates an Amount of n whole units, e.g. Units(BUSD, 10) is 10e18.
func Units(asset *Asset, n int64) Amount {
	return NewAmount(asset, new(big.Int).Mul(big.NewInt(n), asset.Unit()))
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.raw)
}

// Asset returns the asset this amount is denominated in.
func (a Amount) Asset() *Asset {
	return a.asset
}

func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

func (a Amount) IsPositive() bool {
	return a.raw != nil && a.raw.Sign() > 0
}

// -----------------------------------------------------------------------------
// Arithmetic (same asset only, checked)
// -----------------------------------------------------------------------------

// Add returns a+b, failing with ErrOverflow past MaxUint256.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	return TryNewAmount(a.asset, new(big.Int).Add(a.Raw(), b.Raw()))
}

// MustAdd adds two amounts, panics on error.
func (a Amount) MustAdd(b Amount) Amount {
	result, err := a.Add(b)
	if err != nil {
		panic(err)
	}
	return result
}

// Sub returns a-b, failing with ErrNegativeResult when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.Raw().Cmp(b.Raw()) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return NewAmount(a.asset, new(big.Int).Sub(a.Raw(), b.Raw())), nil
}

// MustSub subtracts b from a, panics on error.
func (a Amount) MustSub(b Amount) Amount {
	result, err := a.Sub(b)
	if err != nil {
		panic(err)
	}
	return result
}

// Mul multiplies by a non-negative integer factor.
func (a Amount) Mul(factor int64) (Amount, error) {
	if factor < 0 {
		return Amount{}, ErrNegativeAmount
	}
	return TryNewAmount(a.asset, new(big.Int).Mul(a.Raw(), big.NewInt(factor)))
}

// Div divides by a positive integer, rounding down.
func (a Amount) Div(divisor int64) (Amount, error) {
	if divisor == 0 {
		return Amount{}, ErrDivisionByZero
	}
	if divisor < 0 {
		return Amount{}, ErrNegativeAmount
	}
	return NewAmount(a.asset, new(big.Int).Div(a.Raw(), big.NewInt(divisor))), nil
}

// MulDiv returns floor(a * num / den). The intermediate product is unbounded,
// only the result must fit in 256 bits.
func (a Amount) MulDiv(num, den *big.Int) (Amount, error) {
	q, _, err := a.mulDiv(num, den)
	if err != nil {
		return Amount{}, err
	}
	return TryNewAmount(a.asset, q)
}

// MulDivUp returns ceil(a * num / den).
func (a Amount) MulDivUp(num, den *big.Int) (Amount, error) {
	q, r, err := a.mulDiv(num, den)
	if err != nil {
		return Amount{}, err
	}
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return TryNewAmount(a.asset, q)
}

func (a Amount) mulDiv(num, den *big.Int) (*big.Int, *big.Int, error) {
	if a.asset == nil {
		return nil, nil, ErrNilAsset
	}
	if den.Sign() == 0 {
		return nil, nil, ErrDivisionByZero
	}
	if num.Sign() < 0 || den.Sign() < 0 {
		return nil, nil, ErrNegativeAmount
	}
	prod := new(big.Int).Mul(a.Raw(), num)
	q, r := new(big.Int).QuoRem(prod, den, new(big.Int))
	return q, r, nil
}

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

// Cmp compares two amounts of the same asset.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.checkSameAsset(b); err != nil {
		return 0, err
	}
	return a.Raw().Cmp(b.Raw()), nil
}

// Equals returns true if both amounts have the same asset and value.
func (a Amount) Equals(b Amount) bool {
	if !a.asset.Equals(b.asset) {
		return false
	}
	return a.Raw().Cmp(b.Raw()) == 0
}

// GreaterThanOrEqual returns true if a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) (bool, error) {
	cmp, err := a.Cmp(b)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) (bool, error) {
	cmp, err := a.Cmp(b)
	if err != nil {
		return false, err
	}
	return cmp < 0, nil
}

// -----------------------------------------------------------------------------
// Boundary (decimal conversion for parsing and display)
// -----------------------------------------------------------------------------

// ToDecimal converts the amount to whole units for display.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// ParseDecimal creates an Amount from a value in whole units.
func ParseDecimal(asset *Asset, d decimal.Decimal) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}

	scaled := d.Shift(int32(asset.Decimals()))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, ErrTooManyDecimals
	}
	return TryNewAmount(asset, scaled.BigInt())
}

// ParseString creates an Amount from a decimal string in whole units.
func ParseString(asset *Asset, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("asset: invalid decimal string: %w", err)
	}
	return ParseDecimal(asset, d)
}

// ParseRaw creates an Amount from a base-10 string in smallest units.
func ParseRaw(asset *Asset, s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("asset: invalid integer string %q", s)
	}
	return TryNewAmount(asset, v)
}

// String returns e.g. "1.5 BUSD".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.asset.Symbol())
}

// StringFixed returns a string with fixed decimal places.
func (a Amount) StringFixed(places int32) string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().StringFixed(places), a.asset.Symbol())
}

func (a Amount) checkSameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if !a.asset.Equals(b.asset) {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Symbol(), b.asset.Symbol())
	}
	return nil
}
