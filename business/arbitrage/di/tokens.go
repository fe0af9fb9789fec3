// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/business/arbitrage/infra"
	"github.com/fd1az/flash-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Executor = di.NewToken[*app.Executor]("arbitrage.Executor")
	Reporter = di.NewToken[*infra.ConsoleReporter]("arbitrage.Reporter")
	Recent   = di.NewToken[*infra.RecentRuns]("arbitrage.RecentRuns")
	Stream   = di.NewToken[*infra.EventStream]("arbitrage.EventStream")
	API      = di.NewToken[*infra.API]("arbitrage.API")
)

// Private dependency tokens - internal to arbitrage module
var (
	Ledger   = di.NewToken[*app.FlashLoanLedger]("arbitrage:ledger")
	Resolver = di.NewToken[*app.PathResolver]("arbitrage:resolver")
	Sinks    = di.NewToken[app.Sinks]("arbitrage:sinks")
	Journals = di.NewToken[*JournalSet]("arbitrage:journals")
)

// JournalSet holds the optional durable sinks. Either field may be nil.
type JournalSet struct {
	JSONL    *infra.JSONLJournal
	Postgres *infra.PostgresJournal
}

// Close releases the Postgres pool when one was opened.
func (j *JournalSet) Close() {
	if j != nil && j.Postgres != nil {
		j.Postgres.Close()
	}
}

// Helper functions for type-safe access
func GetExecutor(c di.ServiceRegistry) *app.Executor {
	return di.GetToken(c, Executor)
}

func GetReporter(c di.ServiceRegistry) *infra.ConsoleReporter {
	return di.GetToken(c, Reporter)
}

func GetRecent(c di.ServiceRegistry) *infra.RecentRuns {
	return di.GetToken(c, Recent)
}

func GetStream(c di.ServiceRegistry) *infra.EventStream {
	return di.GetToken(c, Stream)
}

func GetAPI(c di.ServiceRegistry) *infra.API {
	return di.GetToken(c, API)
}

func GetLedger(c di.ServiceRegistry) *app.FlashLoanLedger {
	return di.GetToken(c, Ledger)
}

func GetResolver(c di.ServiceRegistry) *app.PathResolver {
	return di.GetToken(c, Resolver)
}

func GetSinks(c di.ServiceRegistry) app.Sinks {
	return di.GetToken(c, Sinks)
}

func GetJournals(c di.ServiceRegistry) *JournalSet {
	return di.GetToken(c, Journals)
}
