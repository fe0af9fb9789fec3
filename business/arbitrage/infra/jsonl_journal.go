package infra

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

var _ app.EventSink = (*JSONLJournal)(nil)

// JSONLJournal appends one JSON line per run outcome.
type JSONLJournal struct {
	path   string
	mu     sync.Mutex
	logger logger.LoggerInterface
}

// NewJSONLJournal creates a journal appending to path.
func NewJSONLJournal(path string, log logger.LoggerInterface) *JSONLJournal {
	return &JSONLJournal{path: path, logger: log}
}

func (j *JSONLJournal) Committed(ctx context.Context, ev app.CommittedEvent) {
	j.record(ctx, committedEntry(ev))
}

func (j *JSONLJournal) Aborted(ctx context.Context, ev app.AbortedEvent) {
	j.record(ctx, abortedEntry(ev))
}

func (j *JSONLJournal) record(ctx context.Context, e JournalEntry) {
	if err := j.Append(e); err != nil {
		j.logger.Error(ctx, "journal write failed", "path", j.path, "run_id", e.RunID, "error", err)
	}
}

// Append writes entries as JSON lines.
func (j *JSONLJournal) Append(entries ...JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return journalErr("create journal dir", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return journalErr("open journal", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return journalErr("marshal entry", err)
		}
		if _, err := writer.Write(line); err != nil {
			return journalErr("write entry", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return journalErr("write newline", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return journalErr("flush journal", err)
	}
	return nil
}

// ReadJournal loads every entry of a JSONL journal.
func ReadJournal(path string) ([]JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var out []JournalEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}

func journalErr(step string, err error) error {
	return apperror.New(apperror.CodeJournalWriteFailed, apperror.WithContext(step), apperror.WithCause(err))
}
