package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	pricingApp "github.com/fd1az/flash-arbitrage/business/pricing/app"
	"github.com/fd1az/flash-arbitrage/pkg/ui/components"
)

const maxErrors = 3

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the Bubble Tea model for following pool reserves block by block.
type Model struct {
	title  string
	keys   KeyMap
	help   help.Model
	pools  *components.PoolsComponent
	status *components.StatusComponent

	quitting bool
	paused   bool
	skipped  int
	width    int
	errors   []ErrorEntry
}

// New creates a new TUI model.
func New(title string) Model {
	return Model{
		title:  title,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		pools:  components.NewPoolsComponent(),
		status: components.NewStatusComponent(),
		errors: make([]ErrorEntry, 0, maxErrors),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.errors = make([]ErrorEntry, 0, maxErrors)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case BlockMsg:
		// The head keeps moving while paused.
		m.status.Update(components.HeadStatus{
			Number:    msg.Block.Number,
			Hash:      msg.Block.Hash.Hex(),
			Timestamp: msg.Block.Timestamp,
		})

	case SnapshotMsg:
		if m.paused {
			m.skipped++
			return m, nil
		}
		rows := RowsFromSnapshots(msg.Snapshots)
		m.pools.Update(msg.Block, rows)
		failed := m.pools.Failed()
		m.status.RecordReads(len(rows)-failed, failed)

	case ErrorMsg:
		if msg.Err != nil {
			m.errors = append(m.errors, ErrorEntry{Message: msg.Err.Error(), Timestamp: time.Now()})
			if len(m.errors) > maxErrors {
				m.errors = m.errors[len(m.errors)-maxErrors:]
			}
		}
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	if m.paused {
		b.WriteString(" ")
		b.WriteString(PausedStyle.Render(fmt.Sprintf("PAUSED (%d skipped)", m.skipped)))
	}
	b.WriteString("\n\n")
	b.WriteString(BoxStyle.Render(strings.TrimRight(m.status.View(), "\n")))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(strings.TrimRight(m.pools.View(), "\n")))
	b.WriteString("\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorHeaderStyle.Render("ERRORS"))
		b.WriteString("\n")
		for _, e := range m.errors {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s %s", e.Timestamp.Format("15:04:05"), e.Message)))
			b.WriteString("\n")
		}
	}

	b.WriteString(MutedValue.Render(m.help.View(m.keys)))
	return b.String()
}

// Paused reports whether snapshot updates are being skipped.
func (m Model) Paused() bool { return m.paused }

// Errors returns the retained errors, oldest first.
func (m Model) Errors() []ErrorEntry { return m.errors }

// RowsFromSnapshots formats pair reads for the pools table. Spot prices are
// token0 quoted in token1.
func RowsFromSnapshots(snaps []pricingApp.PairSnapshot) []components.PoolRow {
	rows := make([]components.PoolRow, 0, len(snaps))
	for _, s := range snaps {
		row := components.PoolRow{Address: s.Address.Hex(), Err: s.Err}
		if s.Err != nil {
			row.Pair = "?"
			rows = append(rows, row)
			continue
		}
		p := s.Pool
		row.Pair = p.Key.String()
		row.FeeBps = uint32(p.Fee)
		row.Reserve0 = p.Reserve0.StringFixed(4)
		row.Reserve1 = p.Reserve1.StringFixed(4)
		if sp, err := p.SpotPrice(p.Key.Token0()); err == nil {
			row.Price = sp.Rate()
		}
		rows = append(rows, row)
	}
	return rows
}

// Feed pushes messages into a running program until ctx ends.
type Feed func(ctx context.Context, send func(tea.Msg)) error

// Run starts the program and the feed together. The feed is cancelled when
// the user quits; a feed error is shown in the error panel and the view
// stays up until the user quits.
func Run(parent context.Context, m Model, feed Feed, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := feed(ctx, p.Send); err != nil && !errors.Is(err, context.Canceled) {
			p.Send(ErrorMsg{Err: err})
		}
	}()

	_, err := p.Run()
	cancel()
	<-done

	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}
