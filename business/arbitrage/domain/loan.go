package domain

import (
	"math/big"

	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// DefaultLoanFee is 0.3%: 1000 borrowed, 1003 due.
const DefaultLoanFee pricingDomain.FeeRate = 30

// LoanRequest asks for principal of an asset.
type LoanRequest struct {
	Asset     *asset.Asset
	Principal asset.Amount
}

// RepaymentObligation is what the executor owes the lender.
type RepaymentObligation struct {
	Principal asset.Amount
	Fee       asset.Amount
	TotalDue  asset.Amount
}

// OpenLoan derives the obligation for principal. The fee is floored like the
// lender's own principal*(10000+bps)/10000 check; a fee that floors to zero is
// raised to one unit so any non-zero principal owes strictly more than it borrowed.
func OpenLoan(a *asset.Asset, principal asset.Amount, rate pricingDomain.FeeRate) (LoanRequest, RepaymentObligation, error) {
	if a == nil || !principal.Asset().Equals(a) {
		return LoanRequest{}, RepaymentObligation{}, apperror.New(apperror.CodeInvalidAsset,
			apperror.WithContext("loan amount must be denominated in the base asset"))
	}
	if principal.IsZero() {
		return LoanRequest{}, RepaymentObligation{}, apperror.New(apperror.CodeZeroPrincipal,
			apperror.WithContext("cannot borrow 0 "+a.Symbol()))
	}
	if err := rate.Validate(); err != nil {
		return LoanRequest{}, RepaymentObligation{}, err
	}

	fee, err := principal.MulDiv(rate.Bps(), big.NewInt(pricingDomain.BasisPointsDenominator))
	if err != nil {
		return LoanRequest{}, RepaymentObligation{}, overflow(err)
	}
	if fee.IsZero() {
		fee = asset.NewAmountFromInt64(a, 1)
	}
	total, err := principal.Add(fee)
	if err != nil {
		return LoanRequest{}, RepaymentObligation{}, overflow(err)
	}

	return LoanRequest{Asset: a, Principal: principal},
		RepaymentObligation{Principal: principal, Fee: fee, TotalDue: total},
		nil
}

// Settle is the profitability gate: final must cover the total due.
func Settle(final asset.Amount, ob RepaymentObligation) ExecutionResult {
	cmp, err := final.Cmp(ob.TotalDue)
	if err != nil {
		return ExecutionResult{Status: StatusAborted, Reason: apperror.CodeInvalidAsset,
			Err: apperror.New(apperror.CodeInvalidAsset, apperror.WithContext("final amount is not in the loan asset"), apperror.WithCause(err))}
	}
	if cmp < 0 {
		shortfall := ob.TotalDue.MustSub(final)
		return ExecutionResult{Status: StatusAborted, Reason: apperror.CodeUnprofitable,
			Err: apperror.Rejected(apperror.CodeUnprofitable,
				"final "+final.String()+" is "+shortfall.String()+" short of "+ob.TotalDue.String(), nil)}
	}
	return ExecutionResult{Status: StatusCommitted, Profit: final.MustSub(ob.TotalDue)}
}

func overflow(err error) error {
	return apperror.New(apperror.CodeAmountOverflow, apperror.WithCause(err))
}
