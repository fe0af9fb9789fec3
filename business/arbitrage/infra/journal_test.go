package infra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

var occurred = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func committedEvent() app.CommittedEvent {
	return app.CommittedEvent{
		RunID:      "run-1",
		Base:       asset.BUSD,
		Loan:       asset.Units(asset.BUSD, 1000),
		Fee:        asset.Units(asset.BUSD, 3),
		Final:      asset.Units(asset.BUSD, 4000),
		Profit:     asset.Units(asset.BUSD, 2997),
		Path:       "BUSD->CROX->CAKE->BUSD",
		Initiator:  tokenDomain.DeriveAccount("initiator"),
		OccurredAt: occurred,
	}
}

func abortedEvent(runID string) app.AbortedEvent {
	return app.AbortedEvent{
		RunID:      runID,
		Base:       asset.BUSD,
		Loan:       asset.Units(asset.BUSD, 1000),
		Path:       "BUSD->CROX->CAKE->BUSD",
		Reason:     apperror.CodeUnprofitable,
		State:      domain.StateAborted,
		Err:        apperror.New(apperror.CodeUnprofitable),
		OccurredAt: occurred,
	}
}

func TestJSONLJournal_AppendsAndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "journal.jsonl")
	j := NewJSONLJournal(path, logger.NewNop())
	ctx := context.Background()

	j.Committed(ctx, committedEvent())
	j.Aborted(ctx, abortedEvent("run-2"))

	entries, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	c := entries[0]
	assert.Equal(t, "run-1", c.RunID)
	assert.Equal(t, "committed", c.Status)
	assert.Equal(t, "BUSD", c.Base)
	assert.Equal(t, uint64(asset.ChainIDBSC), c.ChainID)
	assert.Equal(t, "1000000000000000000000", c.Loan)
	assert.Equal(t, "3000000000000000000", c.Fee)
	assert.Equal(t, "2997000000000000000000", c.Profit)
	assert.True(t, c.OccurredAt.Equal(occurred))

	a := entries[1]
	assert.Equal(t, "aborted", a.Status)
	assert.Equal(t, "UNPROFITABLE", a.Reason)
	assert.Equal(t, "aborted", a.State)
	assert.NotEmpty(t, a.Error)
	assert.Empty(t, a.Profit)
}

func TestJSONLJournal_AbortWithoutBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j := NewJSONLJournal(path, logger.NewNop())

	ev := abortedEvent("")
	ev.Base = nil
	ev.Reason = apperror.CodeMalformedPath
	require.NoError(t, j.Append(abortedEntry(ev)))

	entries, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Base)
	assert.Empty(t, entries[0].Loan)
	assert.Equal(t, "MALFORMED_PATH", entries[0].Reason)
}

func TestJSONLJournal_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	j := NewJSONLJournal(filepath.Join(blocker, "journal.jsonl"), logger.NewNop())
	err := j.Append(committedEntry(committedEvent()))

	require.Error(t, err)
	assert.Equal(t, apperror.CodeJournalWriteFailed, apperror.GetCode(err))
}

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestPostgresJournal_Insert(t *testing.T) {
	db := &fakeExecer{}
	j := &PostgresJournal{db: db, logger: logger.NewNop()}
	ctx := context.Background()

	j.Committed(ctx, committedEvent())
	j.Aborted(ctx, abortedEvent("run-2"))

	require.Len(t, db.calls, 2)
	assert.Equal(t, insertRun, db.calls[0].sql)

	args := db.calls[0].args
	require.Len(t, args, 15)
	assert.Equal(t, "run-1", args[0])
	assert.Equal(t, "committed", args[1])
	assert.Equal(t, int64(asset.ChainIDBSC), args[4])
	assert.Equal(t, "2997000000000000000000", args[9])
	assert.Nil(t, args[11], "committed runs have no reason")

	args = db.calls[1].args
	assert.Equal(t, "aborted", args[1])
	assert.Equal(t, "UNPROFITABLE", args[11])
	assert.Nil(t, args[9], "aborted runs have no profit")
}

func TestPostgresJournal_SkipsAbortsWithoutRunID(t *testing.T) {
	db := &fakeExecer{}
	j := &PostgresJournal{db: db, logger: logger.NewNop()}

	j.Aborted(context.Background(), abortedEvent(""))

	assert.Empty(t, db.calls)
}

func TestPostgresJournal_Errors(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection reset")}
	j := &PostgresJournal{db: db, logger: logger.NewNop()}
	ctx := context.Background()

	err := j.EnsureSchema(ctx)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeJournalWriteFailed, apperror.GetCode(err))

	err = j.Insert(ctx, committedEntry(committedEvent()))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeJournalWriteFailed, apperror.GetCode(err))

	// sink errors are logged, not propagated
	j.Committed(ctx, committedEvent())
	assert.Len(t, db.calls, 3)
}

func TestRecentRuns_KeepsNewestFirst(t *testing.T) {
	r := NewRecentRuns(2)
	ctx := context.Background()

	r.Aborted(ctx, abortedEvent("a"))
	r.Aborted(ctx, abortedEvent("b"))
	r.Committed(ctx, committedEvent())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "run-1", list[0].RunID)
	assert.Equal(t, "b", list[1].RunID)

	list[0].RunID = "changed"
	assert.Equal(t, "run-1", r.List()[0].RunID)
}

func TestEventStream_PublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	s := NewEventStream(logger.NewNop())
	ch := s.subscribe()
	require.Equal(t, 1, s.Subscribers())

	for i := 0; i < streamBuffer+5; i++ {
		s.Committed(context.Background(), committedEvent())
	}
	assert.Len(t, ch, streamBuffer)

	first := <-ch
	assert.Equal(t, "committed", first.Status)

	s.unsubscribe(ch)
	assert.Equal(t, 0, s.Subscribers())
	s.Aborted(context.Background(), abortedEvent("r-2"))
	assert.Len(t, ch, streamBuffer-1)
}
