package infra

import (
	"time"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
)

// JournalEntry is the persisted form of one run outcome. Amounts are raw
// integers in the base asset's smallest unit.
type JournalEntry struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	Base        string    `json:"base,omitempty"`
	BaseAddress string    `json:"base_address,omitempty"`
	ChainID     uint64    `json:"chain_id,omitempty"`
	Path        string    `json:"path"`
	Loan        string    `json:"loan,omitempty"`
	Fee         string    `json:"fee,omitempty"`
	Final       string    `json:"final,omitempty"`
	Profit      string    `json:"profit,omitempty"`
	Initiator   string    `json:"initiator,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	State       string    `json:"state,omitempty"`
	Error       string    `json:"error,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func committedEntry(ev app.CommittedEvent) JournalEntry {
	e := JournalEntry{
		RunID:      ev.RunID,
		Status:     "committed",
		Path:       ev.Path,
		Loan:       ev.Loan.Raw().String(),
		Fee:        ev.Fee.Raw().String(),
		Final:      ev.Final.Raw().String(),
		Profit:     ev.Profit.Raw().String(),
		Initiator:  ev.Initiator.Address.Hex(),
		State:      "committed",
		OccurredAt: ev.OccurredAt.UTC(),
	}
	if ev.Base != nil {
		e.Base = ev.Base.Symbol()
		e.BaseAddress = ev.Base.Address().Hex()
		e.ChainID = ev.Base.ChainID()
	}
	return e
}

func abortedEntry(ev app.AbortedEvent) JournalEntry {
	e := JournalEntry{
		RunID:      ev.RunID,
		Status:     "aborted",
		Path:       ev.Path,
		Reason:     string(ev.Reason),
		State:      ev.State.String(),
		OccurredAt: ev.OccurredAt.UTC(),
	}
	if ev.Base != nil {
		e.Base = ev.Base.Symbol()
		e.BaseAddress = ev.Base.Address().Hex()
		e.ChainID = ev.Base.ChainID()
		e.Loan = ev.Loan.Raw().String()
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	return e
}
