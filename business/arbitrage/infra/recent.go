package infra

import (
	"context"
	"sync"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
)

var _ app.EventSink = (*RecentRuns)(nil)

// RecentRuns keeps the last few outcomes in memory, newest first.
type RecentRuns struct {
	mu      sync.RWMutex
	entries []JournalEntry
	max     int
}

// NewRecentRuns keeps at most max entries.
func NewRecentRuns(max int) *RecentRuns {
	if max <= 0 {
		max = 50
	}
	return &RecentRuns{max: max}
}

func (r *RecentRuns) Committed(_ context.Context, ev app.CommittedEvent) {
	r.add(committedEntry(ev))
}

func (r *RecentRuns) Aborted(_ context.Context, ev app.AbortedEvent) {
	r.add(abortedEntry(ev))
}

func (r *RecentRuns) add(e JournalEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]JournalEntry{e}, r.entries...)
	if len(r.entries) > r.max {
		r.entries = r.entries[:r.max]
	}
}

// List returns a copy of the retained entries.
func (r *RecentRuns) List() []JournalEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]JournalEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
