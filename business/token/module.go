// Package token implements the token bounded context: balances and transfers.
package token

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	tokenDI "github.com/fd1az/flash-arbitrage/business/token/di"
	"github.com/fd1az/flash-arbitrage/business/token/infra/memory"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/di"
	"github.com/fd1az/flash-arbitrage/internal/logger"
	"github.com/fd1az/flash-arbitrage/internal/monolith"
)

// Module implements the token bounded context.
type Module struct{}

// RegisterServices registers the bank with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tokenDI.Bank, func(sr di.ServiceRegistry) *memory.Bank {
		log := sr.Get("logger").(logger.LoggerInterface)
		return memory.NewBank(log)
	})
	return nil
}

// Startup registers the configured tokens next to the built-in BSC set.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	registry := mono.AssetRegistry()

	for _, tc := range cfg.Tokens {
		if !common.IsHexAddress(tc.Address) {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext(fmt.Sprintf("token %s: invalid address %q", tc.Symbol, tc.Address)))
		}
		id := asset.NewTokenAssetID(cfg.Chain.ChainID, common.HexToAddress(tc.Address))
		a := registry.Ensure(asset.NewAssetWithName(id, strings.ToUpper(tc.Symbol), tc.Name, tc.Decimals))
		mono.Logger().Debug(ctx, "token registered", "symbol", a.Symbol(), "address", a.Address().Hex())
	}

	tokenDI.GetBank(mono.Services())
	mono.Logger().Info(ctx, "token module started", "assets", registry.Count())
	return nil
}
