// Package pricing implements the pricing bounded context: the pool book,
// quoting and live reserve reads.
package pricing

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/flash-arbitrage/business/pricing/app"
	pricingDI "github.com/fd1az/flash-arbitrage/business/pricing/di"
	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/business/pricing/infra/memory"
	"github.com/fd1az/flash-arbitrage/business/pricing/infra/pancake"
	tokenDI "github.com/fd1az/flash-arbitrage/business/token/di"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/config"
	"github.com/fd1az/flash-arbitrage/internal/di"
	"github.com/fd1az/flash-arbitrage/internal/logger"
	"github.com/fd1az/flash-arbitrage/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Exchange (public) - pool registry settling against the token bank
	di.RegisterToken(c, pricingDI.Exchange, func(sr di.ServiceRegistry) *memory.Exchange {
		log := sr.Get("logger").(logger.LoggerInterface)
		return memory.NewExchange(tokenDI.GetBank(sr), log)
	})

	// Oracle (public) - quotes honour the exchange's pinned outputs
	di.RegisterToken(c, pricingDI.Oracle, func(sr di.ServiceRegistry) *app.OracleService {
		log := sr.Get("logger").(logger.LoggerInterface)
		ex := pricingDI.GetExchange(sr)

		oracle, err := app.NewOracleService(ex, log, app.WithAmountOutOverrides(ex))
		if err != nil {
			panic("failed to create pricing oracle: " + err.Error())
		}
		return oracle
	})

	// PairReader (private) - live PancakeSwap reserves, dials the node lazily
	di.RegisterToken(c, pricingDI.PairReader, func(sr di.ServiceRegistry) *pancake.Reader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		client := sr.Get("ethClient").(*ethclient.Client)

		reader, err := pancake.NewReader(client, registry, pancake.Config{
			ChainID:        cfg.Chain.ChainID,
			Fee:            domain.FeeRate(cfg.Pricing.DefaultFeeBps),
			CallTimeout:    cfg.Chain.CallTimeout,
			RateLimitRPS:   cfg.Chain.RateLimitRPS,
			RateLimitBurst: cfg.Chain.RateLimitBurst,
			CacheSize:      cfg.Chain.PairCacheSize,
		}, log)
		if err != nil {
			panic("failed to create pancake reader: " + err.Error())
		}
		return reader
	})

	// Snapshot (public)
	di.RegisterToken(c, pricingDI.Snapshot, func(sr di.ServiceRegistry) *app.SnapshotService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewSnapshotService(pricingDI.GetPairReader(sr), log)
	})

	return nil
}

// Startup lists the configured pool book on the exchange.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	ex := pricingDI.GetExchange(mono.Services())
	err := memory.LoadBook(ctx, ex, mono.AssetRegistry(), memory.BookConfig{
		ChainID:       cfg.Chain.ChainID,
		DefaultFeeBps: cfg.Pricing.DefaultFeeBps,
		Pools:         cfg.Pools,
		AmountsOut:    cfg.Arbitrage.AmountsOut,
	})
	if err != nil {
		return err
	}

	log.Info(ctx, "pricing module started",
		"pools", len(cfg.Pools),
		"pinned_outputs", len(cfg.Arbitrage.AmountsOut),
	)
	return nil
}
