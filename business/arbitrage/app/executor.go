package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apm"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

const (
	tracerName = "arbitrage.executor"
	meterName  = "arbitrage.executor"
)

// Accounts are the three parties of a flash arbitrage.
type Accounts struct {
	Lender    tokenDomain.Account
	Executor  tokenDomain.Account
	Initiator tokenDomain.Account
}

// Request is the caller-facing form of a run: a base symbol, a decimal loan
// amount and the asset cycle, e.g. BUSD, "1000", [BUSD CROX CAKE BUSD].
type Request struct {
	Base   string
	Amount string
	Route  []string
}

type executorMetrics struct {
	runsTotal   metric.Int64Counter
	runsAborted metric.Int64Counter
	runLatency  metric.Float64Histogram
	profit      metric.Float64Histogram
}

// Executor runs one flash arbitrage at a time: borrow, swap around the path,
// verify, repay. Any failure after the loan is disbursed rolls back every
// transfer made by the run.
type Executor struct {
	mu sync.Mutex

	quoter   Quoter
	exchange Exchange
	bank     Bank
	ledger   *FlashLoanLedger
	resolver *PathResolver
	registry *asset.Registry
	accounts Accounts
	chainID  uint64
	sink     EventSink
	logger   logger.LoggerInterface
	now      func() time.Time

	tracer  apm.Tracer
	metrics *executorMetrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithEventSink sets the observer of terminal outcomes.
func WithEventSink(s EventSink) ExecutorOption {
	return func(e *Executor) { e.sink = s }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// WithTracer replaces the tracer that records one span per run.
func WithTracer(t apm.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = t }
}

// WithChainID sets the chain used to look up symbols. Defaults to BSC.
func WithChainID(id uint64) ExecutorOption {
	return func(e *Executor) { e.chainID = id }
}

// NewExecutor wires an executor over its collaborators.
func NewExecutor(
	quoter Quoter,
	exchange Exchange,
	ledger *FlashLoanLedger,
	bank Bank,
	resolver *PathResolver,
	registry *asset.Registry,
	initiator tokenDomain.Account,
	log logger.LoggerInterface,
	opts ...ExecutorOption,
) (*Executor, error) {
	e := &Executor{
		quoter:   quoter,
		exchange: exchange,
		bank:     bank,
		ledger:   ledger,
		resolver: resolver,
		registry: registry,
		accounts: Accounts{
			Lender:    ledger.lender,
			Executor:  ledger.executor,
			Initiator: initiator,
		},
		chainID: asset.ChainIDBSC,
		sink:    nopSink{},
		logger:  log,
		now:     time.Now,
		tracer:  apm.NewTracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if initiator.Address == e.accounts.Executor.Address {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("initiator and executor must be distinct accounts"))
	}
	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Executor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &executorMetrics{}

	e.metrics.runsTotal, err = meter.Int64Counter(
		"arbitrage_runs_total",
		metric.WithDescription("Total arbitrage runs by status"),
	)
	if err != nil {
		return err
	}

	e.metrics.runsAborted, err = meter.Int64Counter(
		"arbitrage_runs_aborted_total",
		metric.WithDescription("Aborted arbitrage runs by reason"),
	)
	if err != nil {
		return err
	}

	e.metrics.runLatency, err = meter.Float64Histogram(
		"arbitrage_run_latency_ms",
		metric.WithDescription("Arbitrage run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	e.metrics.profit, err = meter.Float64Histogram(
		"arbitrage_profit",
		metric.WithDescription("Profit of committed runs in base asset units"),
	)
	return err
}

// Accounts returns the lender, executor and initiator accounts.
func (e *Executor) Accounts() Accounts { return e.accounts }

// Run executes one attempt and returns its result. Concurrent calls queue.
func (e *Executor) Run(ctx context.Context, base *asset.Asset, loan asset.Amount, path domain.SwapPath) domain.ExecutionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run(ctx, base, loan, path)
}

// TryRun is Run failing with EXECUTION_IN_PROGRESS instead of waiting.
func (e *Executor) TryRun(ctx context.Context, base *asset.Asset, loan asset.Amount, path domain.SwapPath) domain.ExecutionResult {
	if !e.mu.TryLock() {
		return domain.Aborted(domain.StateRequested, apperror.New(apperror.CodeExecutionInProgress))
	}
	defer e.mu.Unlock()
	return e.run(ctx, base, loan, path)
}

// InitiateArbitrage resolves a symbolic request and runs it.
func (e *Executor) InitiateArbitrage(ctx context.Context, req Request) domain.ExecutionResult {
	base, loan, path, err := e.Resolve(ctx, req)
	if err != nil {
		res := domain.Aborted(domain.StateRequested, err)
		e.emitAborted(ctx, "", nil, asset.Amount{}, strings.Join(req.Route, "->"), res)
		return res
	}
	return e.Run(ctx, base, loan, path)
}

// Resolve turns a symbolic request into a base asset, loan amount and path.
func (e *Executor) Resolve(ctx context.Context, req Request) (*asset.Asset, asset.Amount, domain.SwapPath, error) {
	base, err := e.LookupAsset(req.Base)
	if err != nil {
		return nil, asset.Amount{}, domain.SwapPath{}, err
	}
	loan, err := asset.ParseString(base, req.Amount)
	if err != nil {
		return nil, asset.Amount{}, domain.SwapPath{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(fmt.Sprintf("loan amount %q", req.Amount)), apperror.WithCause(err))
	}
	route := make([]*asset.Asset, 0, len(req.Route))
	for _, sym := range req.Route {
		a, err := e.LookupAsset(sym)
		if err != nil {
			return nil, asset.Amount{}, domain.SwapPath{}, err
		}
		route = append(route, a)
	}
	path, err := e.resolver.Resolve(ctx, route...)
	if err != nil {
		return nil, asset.Amount{}, domain.SwapPath{}, err
	}
	return base, loan, path, nil
}

// Simulate prices the full cycle and the settlement without moving funds.
func (e *Executor) Simulate(ctx context.Context, base *asset.Asset, loan asset.Amount, path domain.SwapPath) domain.ExecutionResult {
	if err := path.Validate(base); err != nil {
		return domain.Aborted(domain.StateRequested, err)
	}
	_, ob, err := e.ledger.OpenLoan(base, loan)
	if err != nil {
		return domain.Aborted(domain.StateRequested, err)
	}
	tr, err := path.Traverse(ctx, loan, e.quoter)
	if err != nil {
		res := domain.Aborted(domain.StateSwapping, err)
		res.Obligation = ob
		return res
	}
	res := e.ledger.Settle(tr.Final, ob)
	res.State = domain.StateVerifying
	res.FinalAmount = tr.Final
	res.Obligation = ob
	res.Hops = tr.Hops
	return res
}

// BalanceOf returns the executor account's balance of a.
func (e *Executor) BalanceOf(ctx context.Context, a *asset.Asset) (asset.Amount, error) {
	return e.bank.BalanceOf(ctx, e.accounts.Executor, a)
}

// LookupAsset resolves a token symbol on the executor's chain.
func (e *Executor) LookupAsset(symbol string) (*asset.Asset, error) {
	a, err := e.registry.Lookup(strings.ToUpper(strings.TrimSpace(symbol)), e.chainID)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAsset,
			apperror.WithContext(fmt.Sprintf("unknown token %q", symbol)), apperror.WithCause(err))
	}
	return a, nil
}

// attempt carries the mutable state of one run.
type attempt struct {
	id    string
	state domain.State
	base  *asset.Asset
	loan  asset.Amount
	path  domain.SwapPath
	ob    domain.RepaymentObligation
	hops  []domain.HopQuote
	final asset.Amount
}

func (a *attempt) advance(next domain.State) {
	if !a.state.CanTransition(next) {
		panic(fmt.Sprintf("arbitrage: illegal transition %s -> %s", a.state, next))
	}
	a.state = next
}

func (e *Executor) run(ctx context.Context, base *asset.Asset, loan asset.Amount, path domain.SwapPath) domain.ExecutionResult {
	at := &attempt{
		id:    uuid.NewString(),
		state: domain.StateRequested,
		base:  base,
		loan:  loan,
		path:  path,
	}

	ctx, span := e.tracer.StartSpanFromContext(ctx, "arbitrage.run",
		trace.WithAttributes(
			attribute.String("run_id", at.id),
			attribute.String("path", path.String()),
			attribute.String("loan", loan.String()),
		),
	)
	defer span.End()

	start := time.Now()
	res := e.execute(ctx, at)
	res.State = at.state
	res.Hops = at.hops
	res.Obligation = at.ob
	res.FinalAmount = at.final

	e.metrics.runLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	e.metrics.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", res.Status.String())))

	if res.Committed() {
		profit, _ := res.Profit.ToDecimal().Float64()
		e.metrics.profit.Record(ctx, profit, metric.WithAttributes(attribute.String("asset", base.Symbol())))
		span.SetAttributes(attribute.String("profit", res.Profit.String()))
		span.Succeed()

		e.logger.Info(ctx, "arbitrage committed",
			"run_id", at.id,
			"path", path.String(),
			"loan", loan.String(),
			"total_due", at.ob.TotalDue.String(),
			"final", at.final.String(),
			"profit", res.Profit.String(),
		)
		e.sink.Committed(ctx, CommittedEvent{
			RunID:      at.id,
			Base:       base,
			Loan:       loan,
			Fee:        at.ob.Fee,
			Final:      at.final,
			Profit:     res.Profit,
			Path:       path.String(),
			Hops:       at.hops,
			Initiator:  e.accounts.Initiator,
			OccurredAt: e.now(),
		})
		return res
	}

	e.metrics.runsAborted.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(res.Reason))))
	span.NoticeError(res.Err)

	e.logger.Warn(ctx, "arbitrage aborted",
		"run_id", at.id,
		"path", path.String(),
		"loan", loan.String(),
		"reason", res.Reason,
		"error", res.Err,
	)
	e.emitAborted(ctx, at.id, base, loan, path.String(), res)
	return res
}

func (e *Executor) execute(ctx context.Context, at *attempt) domain.ExecutionResult {
	if err := at.path.Validate(at.base); err != nil {
		return e.abort(at, err)
	}
	loanReq, ob, err := e.ledger.OpenLoan(at.base, at.loan)
	if err != nil {
		return e.abort(at, err)
	}
	at.ob = ob

	uow := Begin()
	fail := func(err error) domain.ExecutionResult {
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			e.logger.Error(ctx, "rollback failed", "run_id", at.id, "error", rbErr)
			err = errors.Join(rbErr, err)
		}
		return e.abort(at, err)
	}

	if err := e.ledger.Disburse(ctx, uow, loanReq); err != nil {
		return fail(err)
	}
	at.advance(domain.StateBorrowed)

	at.advance(domain.StateSwapping)
	amount := loanReq.Principal
	for i, hop := range at.path.Hops() {
		quoted, err := e.quoter.Quote(ctx, hop.Pool, amount)
		if err != nil {
			return fail(err)
		}
		receipt, err := e.exchange.Swap(ctx, e.accounts.Executor, hop.Pool, amount)
		if err != nil {
			return fail(err)
		}
		uow.Record(fmt.Sprintf("swap %d %s", i, hop), func(ctx context.Context) error {
			return e.exchange.Reverse(ctx, receipt)
		})
		at.hops = append(at.hops, domain.HopQuote{Hop: hop, In: amount, Out: receipt.Out})
		if !receipt.Out.Equals(quoted) {
			return fail(apperror.New(apperror.CodeStaleQuote, apperror.WithContext(
				fmt.Sprintf("hop %d %s quoted %s, pool paid %s", i, hop, quoted, receipt.Out))))
		}
		amount = receipt.Out
	}
	at.final = amount

	at.advance(domain.StateVerifying)
	held, err := e.bank.BalanceOf(ctx, e.accounts.Executor, at.base)
	if err != nil {
		return fail(err)
	}
	if ok, _ := held.GreaterThanOrEqual(at.final); !ok {
		return fail(apperror.New(apperror.CodeStaleQuote, apperror.WithContext(
			fmt.Sprintf("executor holds %s, swaps reported %s", held, at.final))))
	}
	settled := e.ledger.Settle(at.final, ob)
	if !settled.Committed() {
		return fail(settled.Err)
	}

	if err := e.ledger.Distribute(ctx, uow, ob, settled.Profit, e.accounts.Initiator); err != nil {
		return fail(err)
	}
	if err := uow.Commit(); err != nil {
		return fail(err)
	}
	at.advance(domain.StateCommitted)
	return settled
}

func (e *Executor) abort(at *attempt, err error) domain.ExecutionResult {
	at.advance(domain.StateAborted)
	return domain.Aborted(domain.StateAborted, err)
}

func (e *Executor) emitAborted(ctx context.Context, id string, base *asset.Asset, loan asset.Amount, path string, res domain.ExecutionResult) {
	e.sink.Aborted(ctx, AbortedEvent{
		RunID:      id,
		Base:       base,
		Loan:       loan,
		Path:       path,
		Reason:     res.Reason,
		State:      res.State,
		Err:        res.Err,
		OccurredAt: e.now(),
	})
}
