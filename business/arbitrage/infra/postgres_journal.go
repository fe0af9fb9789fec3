package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

var _ app.EventSink = (*PostgresJournal)(nil)

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS arbitrage_runs (
		run_id       TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		base         TEXT,
		base_address TEXT,
		chain_id     BIGINT,
		path         TEXT NOT NULL,
		loan         NUMERIC(78, 0),
		fee          NUMERIC(78, 0),
		final        NUMERIC(78, 0),
		profit       NUMERIC(78, 0),
		initiator    TEXT,
		reason       TEXT,
		state        TEXT,
		error        TEXT,
		occurred_at  TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

const insertRun = `
	INSERT INTO arbitrage_runs (
		run_id, status, base, base_address, chain_id, path, loan, fee, final, profit,
		initiator, reason, state, error, occurred_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	ON CONFLICT (run_id) DO NOTHING`

// execer is the subset of pgxpool.Pool the journal writes through.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresJournal stores run outcomes in the arbitrage_runs table.
type PostgresJournal struct {
	db     execer
	pool   *pgxpool.Pool
	logger logger.LoggerInterface
}

// NewPostgresJournal connects to dsn and ensures the table exists.
func NewPostgresJournal(ctx context.Context, dsn string, log logger.LoggerInterface) (*PostgresJournal, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, journalErr("connect", err)
	}
	j := &PostgresJournal{db: pool, pool: pool, logger: log}
	if err := j.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return j, nil
}

// EnsureSchema creates the runs table when missing.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, createRunsTable); err != nil {
		return journalErr("create arbitrage_runs", err)
	}
	return nil
}

func (j *PostgresJournal) Close() {
	if j.pool != nil {
		j.pool.Close()
	}
}

func (j *PostgresJournal) Committed(ctx context.Context, ev app.CommittedEvent) {
	j.record(ctx, committedEntry(ev))
}

func (j *PostgresJournal) Aborted(ctx context.Context, ev app.AbortedEvent) {
	// aborts before a run id exists have nothing to key on
	if ev.RunID == "" {
		return
	}
	j.record(ctx, abortedEntry(ev))
}

func (j *PostgresJournal) record(ctx context.Context, e JournalEntry) {
	if err := j.Insert(ctx, e); err != nil {
		j.logger.Error(ctx, "journal insert failed", "run_id", e.RunID, "error", err)
	}
}

// Insert stores one entry. Re-inserting a run id is a no-op.
func (j *PostgresJournal) Insert(ctx context.Context, e JournalEntry) error {
	_, err := j.db.Exec(ctx, insertRun,
		e.RunID,
		e.Status,
		nullable(e.Base),
		nullable(e.BaseAddress),
		int64(e.ChainID),
		e.Path,
		nullable(e.Loan),
		nullable(e.Fee),
		nullable(e.Final),
		nullable(e.Profit),
		nullable(e.Initiator),
		nullable(e.Reason),
		nullable(e.State),
		nullable(e.Error),
		e.OccurredAt,
	)
	if err != nil {
		return journalErr("insert arbitrage_runs", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
