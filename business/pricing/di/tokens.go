// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/flash-arbitrage/business/pricing/app"
	"github.com/fd1az/flash-arbitrage/business/pricing/infra/memory"
	"github.com/fd1az/flash-arbitrage/business/pricing/infra/pancake"
	"github.com/fd1az/flash-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Oracle   = di.NewToken[*app.OracleService]("pricing.Oracle")
	Exchange = di.NewToken[*memory.Exchange]("pricing.Exchange")
	Snapshot = di.NewToken[*app.SnapshotService]("pricing.Snapshot")
)

// Private dependency tokens - internal to pricing module
var (
	PairReader = di.NewToken[*pancake.Reader]("pricing:pairReader")
)

// Helper functions for type-safe access
func GetOracle(c di.ServiceRegistry) *app.OracleService {
	return di.GetToken(c, Oracle)
}

func GetExchange(c di.ServiceRegistry) *memory.Exchange {
	return di.GetToken(c, Exchange)
}

func GetSnapshot(c di.ServiceRegistry) *app.SnapshotService {
	return di.GetToken(c, Snapshot)
}

func GetPairReader(c di.ServiceRegistry) *pancake.Reader {
	return di.GetToken(c, PairReader)
}
