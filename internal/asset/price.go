package asset

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the fixed-point precision of a Price rate.
const PricePrecision = 18

var pricePrecisionMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(PricePrecision), nil)

// Price is the rate of base expressed in quote, stored as a fixed-point
// integer with PricePrecision decimals. A BUSD/CAKE price of 0.25 is stored
// as 250000000000000000.
type Price struct {
	rate      *big.Int
	base      *Asset
	quote     *Asset
	timestamp time.Time
}

// NewPrice creates a price from a decimal rate.
func NewPrice(base, quote *Asset, rate decimal.Decimal, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}

	return Price{
		rate:      rate.Shift(PricePrecision).BigInt(),
		base:      base,
		quote:     quote,
		timestamp: timestamp,
	}
}

// NewPriceFromReserves derives the marginal price of base in quote from a
// pair of pool reserves, normalising the decimals of both sides. An empty
// base reserve yields a zero price.
func NewPriceFromReserves(baseReserve, quoteReserve Amount, timestamp time.Time) Price {
	base, quote := baseReserve.Asset(), quoteReserve.Asset()
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}

	p := Price{rate: big.NewInt(0), base: base, quote: quote, timestamp: timestamp}
	if baseReserve.IsZero() {
		return p
	}

	// rate = quoteRaw * 10^18 * 10^baseDec / (baseRaw * 10^quoteDec)
	num := new(big.Int).Mul(quoteReserve.Raw(), pricePrecisionMultiplier)
	num.Mul(num, base.Unit())
	den := new(big.Int).Mul(baseReserve.Raw(), quote.Unit())
	p.rate = num.Div(num, den)
	return p
}

// Rate returns the price as a decimal for display.
func (p Price) Rate() decimal.Decimal {
	if p.rate == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.rate, -PricePrecision)
}

// RateRaw returns a copy of the fixed-point rate.
func (p Price) RateRaw() *big.Int {
	if p.rate == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.rate)
}

func (p Price) Base() *Asset  { return p.base }
func (p Price) Quote() *Asset { return p.quote }

// Timestamp returns when this price was observed.
func (p Price) Timestamp() time.Time {
	return p.timestamp
}

// Pair returns the pair symbol, e.g. "CROX/BUSD".
func (p Price) Pair() string {
	if p.base == nil || p.quote == nil {
		return "???/???"
	}
	return fmt.Sprintf("%s/%s", p.base.Symbol(), p.quote.Symbol())
}

// IsZero returns true if the price is zero.
func (p Price) IsZero() bool {
	return p.rate == nil || p.rate.Sign() == 0
}

// Invert returns the inverse price (quote in base).
func (p Price) Invert() Price {
	inv := Price{rate: big.NewInt(0), base: p.quote, quote: p.base, timestamp: p.timestamp}
	if p.IsZero() {
		return inv
	}

	precisionSquared := new(big.Int).Mul(pricePrecisionMultiplier, pricePrecisionMultiplier)
	inv.rate = precisionSquared.Div(precisionSquared, p.rate)
	return inv
}

// Convert values an amount of the base asset in the quote asset at this rate,
// rounding down.
func (p Price) Convert(amount Amount) (Amount, error) {
	if amount.Asset() == nil {
		return Amount{}, ErrNilAsset
	}
	if !amount.Asset().Equals(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s",
			ErrAssetMismatch, p.base.Symbol(), amount.Asset().Symbol())
	}

	// quoteRaw = baseRaw * rate * 10^quoteDec / (10^18 * 10^baseDec)
	num := new(big.Int).Mul(amount.Raw(), p.RateRaw())
	num.Mul(num, p.quote.Unit())
	den := new(big.Int).Mul(pricePrecisionMultiplier, p.base.Unit())

	return NewAmount(p.quote, num.Div(num, den)), nil
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Rate().String(), p.Pair())
}
