// Package arbitrage implements the arbitrage bounded context: flash loan
// execution over a cyclic swap path.
package arbitrage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/flash-arbitrage/business/arbitrage/di"
	"github.com/fd1az/flash-arbitrage/business/arbitrage/infra"
	pricingDI "github.com/fd1az/flash-arbitrage/business/pricing/di"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDI "github.com/fd1az/flash-arbitrage/business/token/di"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/config"
	"github.com/fd1az/flash-arbitrage/internal/di"
	"github.com/fd1az/flash-arbitrage/internal/logger"
	"github.com/fd1az/flash-arbitrage/internal/monolith"
)

const recentRuns = 100

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Ledger (private) - lends from the configured pool account
	di.RegisterToken(c, arbitrageDI.Ledger, func(sr di.ServiceRegistry) *app.FlashLoanLedger {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		lender, err := lenderAccount(cfg, registry, sr)
		if err != nil {
			panic("failed to resolve lender: " + err.Error())
		}
		executor := accountFor("executor", cfg.Arbitrage.ExecutorAddress)

		ledger, err := app.NewFlashLoanLedger(tokenDI.GetBank(sr), lender, executor,
			pricingDomain.FeeRate(cfg.Arbitrage.LoanFeeBps))
		if err != nil {
			panic("failed to create flash loan ledger: " + err.Error())
		}
		return ledger
	})

	// Resolver (private)
	di.RegisterToken(c, arbitrageDI.Resolver, func(sr di.ServiceRegistry) *app.PathResolver {
		return app.NewPathResolver(pricingDI.GetOracle(sr))
	})

	// Reporter (public)
	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) *infra.ConsoleReporter {
		return infra.NewConsoleReporter()
	})

	// Recent runs (public) - backs GET /api/runs
	di.RegisterToken(c, arbitrageDI.Recent, func(sr di.ServiceRegistry) *infra.RecentRuns {
		return infra.NewRecentRuns(recentRuns)
	})

	// Event stream (public) - backs GET /api/stream
	di.RegisterToken(c, arbitrageDI.Stream, func(sr di.ServiceRegistry) *infra.EventStream {
		log := sr.Get("logger").(logger.LoggerInterface)
		return infra.NewEventStream(log)
	})

	// Journals (private) - opened only when configured
	di.RegisterToken(c, arbitrageDI.Journals, func(sr di.ServiceRegistry) *arbitrageDI.JournalSet {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		j := &arbitrageDI.JournalSet{}
		if cfg.Journal.JSONLPath != "" {
			j.JSONL = infra.NewJSONLJournal(cfg.Journal.JSONLPath, log)
		}
		if cfg.Journal.PostgresDSN != "" {
			pg, err := infra.NewPostgresJournal(context.Background(), cfg.Journal.PostgresDSN, log)
			if err != nil {
				panic("failed to open postgres journal: " + err.Error())
			}
			j.Postgres = pg
		}
		return j
	})

	// Sinks (private) - every observer of terminal outcomes
	di.RegisterToken(c, arbitrageDI.Sinks, func(sr di.ServiceRegistry) app.Sinks {
		sinks := app.Sinks{
			arbitrageDI.GetReporter(sr),
			arbitrageDI.GetRecent(sr),
			arbitrageDI.GetStream(sr),
		}
		j := arbitrageDI.GetJournals(sr)
		if j.JSONL != nil {
			sinks = append(sinks, j.JSONL)
		}
		if j.Postgres != nil {
			sinks = append(sinks, j.Postgres)
		}
		return sinks
	})

	// Executor (public)
	di.RegisterToken(c, arbitrageDI.Executor, func(sr di.ServiceRegistry) *app.Executor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		executor, err := app.NewExecutor(
			pricingDI.GetOracle(sr),
			pricingDI.GetExchange(sr),
			arbitrageDI.GetLedger(sr),
			tokenDI.GetBank(sr),
			arbitrageDI.GetResolver(sr),
			registry,
			accountFor("initiator", cfg.Arbitrage.InitiatorAddress),
			log,
			app.WithEventSink(arbitrageDI.GetSinks(sr)),
			app.WithChainID(cfg.Chain.ChainID),
		)
		if err != nil {
			panic("failed to create executor: " + err.Error())
		}
		return executor
	})

	// API (public)
	di.RegisterToken(c, arbitrageDI.API, func(sr di.ServiceRegistry) *infra.API {
		log := sr.Get("logger").(logger.LoggerInterface)
		return infra.NewAPI(arbitrageDI.GetExecutor(sr), pricingDI.GetOracle(sr), log,
			infra.WithRecentRuns(arbitrageDI.GetRecent(sr)),
			infra.WithEventStream(arbitrageDI.GetStream(sr)),
		)
	})

	return nil
}

// Startup resolves the executor so wiring errors surface before any run.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	executor := arbitrageDI.GetExecutor(mono.Services())
	accounts := executor.Accounts()
	log.Info(ctx, "arbitrage module started",
		"lender", accounts.Lender.String(),
		"executor", accounts.Executor.Address.Hex(),
		"initiator", accounts.Initiator.Address.Hex(),
		"loan_fee_bps", mono.Config().Arbitrage.LoanFeeBps,
		"sinks", len(arbitrageDI.GetSinks(mono.Services())),
	)
	return nil
}

// lenderAccount is the account of the configured lender pool.
func lenderAccount(cfg *config.Config, registry *asset.Registry, sr di.ServiceRegistry) (tokenDomain.Account, error) {
	a, b, err := cfg.Arbitrage.LenderPair()
	if err != nil {
		return tokenDomain.Account{}, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}
	x, err := registry.Lookup(strings.ToUpper(a), cfg.Chain.ChainID)
	if err != nil {
		return tokenDomain.Account{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("lender pool token %q", a)), apperror.WithCause(err))
	}
	y, err := registry.Lookup(strings.ToUpper(b), cfg.Chain.ChainID)
	if err != nil {
		return tokenDomain.Account{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("lender pool token %q", b)), apperror.WithCause(err))
	}
	key, err := pricingDomain.NewPoolKey(x, y)
	if err != nil {
		return tokenDomain.Account{}, err
	}
	return pricingDI.GetExchange(sr).PoolAccount(key)
}

// accountFor uses the configured address, or derives one from role.
func accountFor(role, addr string) tokenDomain.Account {
	if addr == "" {
		return tokenDomain.DeriveAccount(role)
	}
	return tokenDomain.NewAccount(role, common.HexToAddress(addr))
}
