package domain

import (
	"math/big"

	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// QuoteExactIn prices selling in against the pool:
//
//	afterFee = in * (10000 - fee) / 10000
//	out      = reserveOut * afterFee / (reserveIn + afterFee)
//
// Both divisions floor, so rounding always favours the pool.
func QuoteExactIn(pool Pool, in asset.Amount) (asset.Amount, error) {
	rin, rout, err := checkTrade(pool, in)
	if err != nil {
		return asset.Amount{}, err
	}

	afterFee, err := in.MulDiv(pool.Fee.Retained(), big.NewInt(BasisPointsDenominator))
	if err != nil {
		return asset.Amount{}, amountErr(err, pool)
	}
	return constantProduct(pool, rin, rout, afterFee)
}

// QuoteFeeFree is the output the pool would give with no fee. QuoteExactIn
// never exceeds it.
func QuoteFeeFree(pool Pool, in asset.Amount) (asset.Amount, error) {
	rin, rout, err := checkTrade(pool, in)
	if err != nil {
		return asset.Amount{}, err
	}
	return constantProduct(pool, rin, rout, in)
}

func checkTrade(pool Pool, in asset.Amount) (asset.Amount, asset.Amount, error) {
	if in.Asset() == nil || !in.IsPositive() {
		return asset.Amount{}, asset.Amount{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext("input amount must be greater than zero"))
	}
	rin, rout, err := pool.ReservesFor(in.Asset())
	if err != nil {
		return asset.Amount{}, asset.Amount{}, err
	}
	if rin.IsZero() || rout.IsZero() {
		return asset.Amount{}, asset.Amount{}, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool "+pool.Key.String()+" has an empty reserve"))
	}
	return rin, rout, nil
}

func constantProduct(pool Pool, rin, rout, in asset.Amount) (asset.Amount, error) {
	den := new(big.Int).Add(rin.Raw(), in.Raw())
	out, err := rout.MulDiv(in.Raw(), den)
	if err != nil {
		return asset.Amount{}, amountErr(err, pool)
	}

	if out.IsZero() {
		return asset.Amount{}, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("trade of "+in.String()+" rounds to zero in "+pool.Key.String()))
	}
	if ge, _ := out.GreaterThanOrEqual(rout); ge {
		return asset.Amount{}, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("trade would drain pool "+pool.Key.String()))
	}
	return out, nil
}

func amountErr(err error, pool Pool) error {
	return apperror.New(apperror.CodeAmountOverflow,
		apperror.WithContext(pool.Key.String()),
		apperror.WithCause(err))
}

// CheckAmountOut verifies that a pinned output is payable by the pool.
func CheckAmountOut(pool Pool, in, out asset.Amount) error {
	if _, _, err := checkTrade(pool, in); err != nil {
		return err
	}
	_, rout, _ := pool.ReservesFor(in.Asset())
	if !out.Asset().Equals(rout.Asset()) {
		return apperror.New(apperror.CodeInvalidAsset,
			apperror.WithContext("output "+out.String()+" is not the counterpart in "+pool.Key.String()))
	}
	if out.IsZero() {
		return apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("zero output in "+pool.Key.String()))
	}
	if ge, _ := out.GreaterThanOrEqual(rout); ge {
		return apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("trade would drain pool "+pool.Key.String()))
	}
	return nil
}
