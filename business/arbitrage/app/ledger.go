package app

import (
	"context"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// FlashLoanLedger lends from the lender account to the executor account and
// collects repayment. Every transfer it makes is recorded on the caller's
// unit of work.
type FlashLoanLedger struct {
	bank     Bank
	lender   tokenDomain.Account
	executor tokenDomain.Account
	fee      pricingDomain.FeeRate
}

// NewFlashLoanLedger creates a ledger charging fee on every loan.
func NewFlashLoanLedger(bank Bank, lender, executor tokenDomain.Account, fee pricingDomain.FeeRate) (*FlashLoanLedger, error) {
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if lender.Address == executor.Address {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("lender and executor must be distinct accounts"))
	}
	return &FlashLoanLedger{bank: bank, lender: lender, executor: executor, fee: fee}, nil
}

// FeeRate returns the loan fee in basis points.
func (l *FlashLoanLedger) FeeRate() pricingDomain.FeeRate { return l.fee }

// Lender returns the lending account.
func (l *FlashLoanLedger) Lender() tokenDomain.Account { return l.lender }

// OpenLoan derives the obligation for principal. Nothing moves yet.
func (l *FlashLoanLedger) OpenLoan(a *asset.Asset, principal asset.Amount) (domain.LoanRequest, domain.RepaymentObligation, error) {
	return domain.OpenLoan(a, principal, l.fee)
}

// Disburse sends the principal from the lender to the executor.
func (l *FlashLoanLedger) Disburse(ctx context.Context, uow *UnitOfWork, loan domain.LoanRequest) error {
	return l.transfer(ctx, uow, "disburse", l.lender, l.executor, loan.Principal)
}

// Settle is the profitability gate.
func (l *FlashLoanLedger) Settle(final asset.Amount, ob domain.RepaymentObligation) domain.ExecutionResult {
	return domain.Settle(final, ob)
}

// Distribute repays the total due to the lender and pays the profit, if any,
// to the initiator.
func (l *FlashLoanLedger) Distribute(ctx context.Context, uow *UnitOfWork, ob domain.RepaymentObligation, profit asset.Amount, initiator tokenDomain.Account) error {
	if err := l.transfer(ctx, uow, "repay", l.executor, l.lender, ob.TotalDue); err != nil {
		return err
	}
	if profit.IsZero() {
		return nil
	}
	return l.transfer(ctx, uow, "profit", l.executor, initiator, profit)
}

func (l *FlashLoanLedger) transfer(ctx context.Context, uow *UnitOfWork, name string, from, to tokenDomain.Account, amt asset.Amount) error {
	if err := l.bank.Transfer(ctx, from, to, amt); err != nil {
		return transferError(name, err)
	}
	uow.Record(name, func(ctx context.Context) error {
		return l.bank.Transfer(ctx, to, from, amt)
	})
	return nil
}

func transferError(step string, err error) error {
	if apperror.GetCode(err) == apperror.CodeTransferFailed {
		return err
	}
	return apperror.New(apperror.CodeTransferFailed, apperror.WithContext(step), apperror.WithCause(err))
}
