// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var bps = decimal.NewFromInt(10_000)

// PoolRow is one pair read, already formatted by the caller.
type PoolRow struct {
	Pair     string
	Address  string
	FeeBps   uint32
	Reserve0 string
	Reserve1 string
	Price    decimal.Decimal // token0 in token1
	Err      error
}

// PoolsComponent renders the pool table and tracks spot price moves
// between consecutive reads of the same pair.
type PoolsComponent struct {
	rows     []PoolRow
	previous map[string]decimal.Decimal
	moves    map[string]decimal.Decimal
	block    uint64
}

// NewPoolsComponent creates a new pools component.
func NewPoolsComponent() *PoolsComponent {
	return &PoolsComponent{
		rows:     make([]PoolRow, 0),
		previous: make(map[string]decimal.Decimal),
		moves:    make(map[string]decimal.Decimal),
	}
}

// Update replaces the table with the reads taken at block.
func (p *PoolsComponent) Update(block uint64, rows []PoolRow) {
	p.block = block
	p.rows = rows
	for _, r := range rows {
		if r.Err != nil {
			continue
		}
		if prev, ok := p.previous[r.Address]; ok && !prev.IsZero() {
			p.moves[r.Address] = r.Price.Sub(prev).Div(prev).Mul(bps)
		}
		p.previous[r.Address] = r.Price
	}
}

// Move returns the spot price change in basis points since the previous
// read of the pair at addr.
func (p *PoolsComponent) Move(addr string) (decimal.Decimal, bool) {
	m, ok := p.moves[addr]
	return m, ok
}

// Failed counts the rows whose read failed.
func (p *PoolsComponent) Failed() int {
	n := 0
	for _, r := range p.rows {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Len returns the number of rows in the last read.
func (p *PoolsComponent) Len() int { return len(p.rows) }

// View renders the pools component.
func (p *PoolsComponent) View() string {
	if len(p.rows) == 0 {
		return "Waiting for reserves..."
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	up := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	down := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("POOLS @ #%d", p.block)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-14s %-12s %5s %22s %22s %14s %10s\n",
		"PAIR", "ACCOUNT", "FEE", "RESERVE0", "RESERVE1", "PRICE", "MOVE"))

	for _, r := range p.rows {
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("%-14s %-12s %s\n", r.Pair, short(r.Address), down.Render(r.Err.Error())))
			continue
		}
		move := muted.Render("-")
		if m, ok := p.moves[r.Address]; ok {
			text := fmt.Sprintf("%+.2fbp", m.InexactFloat64())
			switch m.Sign() {
			case 1:
				move = up.Render(text)
			case -1:
				move = down.Render(text)
			default:
				move = muted.Render(text)
			}
		}
		b.WriteString(fmt.Sprintf("%-14s %-12s %5s %22s %22s %14s %10s\n",
			r.Pair,
			short(r.Address),
			fmt.Sprintf("%dbp", r.FeeBps),
			r.Reserve0,
			r.Reserve1,
			r.Price.StringFixed(6),
			move,
		))
	}
	return b.String()
}

func short(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + ".." + addr[len(addr)-4:]
}
