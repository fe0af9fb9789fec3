package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeadStatus is the chain head as last seen by the watcher.
type HeadStatus struct {
	Number    uint64
	Hash      string
	Timestamp time.Time
}

// StatusComponent renders the chain head and read health.
type StatusComponent struct {
	head   HeadStatus
	seen   bool
	blocks int
	reads  int
	failed int
	now    func() time.Time
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{now: time.Now}
}

// Update records a new chain head.
func (s *StatusComponent) Update(head HeadStatus) {
	s.head = head
	s.seen = true
	s.blocks++
}

// RecordReads adds the outcome of one snapshot round.
func (s *StatusComponent) RecordReads(ok, failed int) {
	s.reads += ok
	s.failed += failed
}

// Head returns the last head and whether one has been seen.
func (s *StatusComponent) Head() (HeadStatus, bool) { return s.head, s.seen }

// View renders the status component.
func (s *StatusComponent) View() string {
	if !s.seen {
		return "├─ Chain: waiting for head..."
	}

	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	line := fmt.Sprintf("├─ Block: %s %s", ok.Render(fmt.Sprintf("#%d", s.head.Number)), short(s.head.Hash))
	if !s.head.Timestamp.IsZero() {
		line += fmt.Sprintf(" (%s ago)", s.now().Sub(s.head.Timestamp).Round(time.Second))
	}
	result := line + "\n"
	result += fmt.Sprintf("├─ Blocks seen: %d\n", s.blocks)

	reads := fmt.Sprintf("└─ Reads: %d ok", s.reads)
	if s.failed > 0 {
		reads += ", " + bad.Render(fmt.Sprintf("%d failed", s.failed))
	}
	return result + reads + "\n"
}
