// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

var _ app.EventSink = (*ConsoleReporter)(nil)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorDanger    = lipgloss.Color("#EF4444") // Red
	colorMuted     = lipgloss.Color("#6B7280") // Gray
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	positiveStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	negativeStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

const rule = "--------------------------------------------------------------------------------"

// ConsoleReporter prints run outcomes, quotes and the pool book.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Committed prints a settled run.
func (r *ConsoleReporter) Committed(_ context.Context, ev app.CommittedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, titleStyle.Render("ARBITRAGE COMMITTED"))
	fmt.Fprintf(r.out, "Run:            %s\n", ev.RunID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", ev.OccurredAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Path:           %s\n", ev.Path)
	fmt.Fprintln(r.out, rule)
	r.printHops(ev.Hops)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, headerStyle.Render("SETTLEMENT"))
	fmt.Fprintf(r.out, "  Borrowed:     %s\n", ev.Loan)
	fmt.Fprintf(r.out, "  Fee:          %s\n", ev.Fee)
	fmt.Fprintf(r.out, "  Final:        %s\n", ev.Final)
	fmt.Fprintf(r.out, "  Profit:       %s -> %s\n", positiveStyle.Render(ev.Profit.String()), ev.Initiator)
	fmt.Fprintln(r.out, rule)
}

// Aborted prints a rejected run.
func (r *ConsoleReporter) Aborted(_ context.Context, ev app.AbortedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, negativeStyle.Render("ARBITRAGE ABORTED: "+string(ev.Reason)))
	if ev.RunID != "" {
		fmt.Fprintf(r.out, "Run:            %s\n", ev.RunID)
	}
	fmt.Fprintf(r.out, "Path:           %s\n", ev.Path)
	if ev.Base != nil {
		fmt.Fprintf(r.out, "Loan:           %s\n", ev.Loan)
	}
	if ev.Err != nil {
		fmt.Fprintf(r.out, "Error:          %s\n", mutedStyle.Render(ev.Err.Error()))
	}
}

// PrintResult prints the outcome of a dry run or a run.
func (r *ConsoleReporter) PrintResult(res domain.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printHops(res.Hops)
	if !res.Obligation.TotalDue.IsZero() {
		fmt.Fprintf(r.out, "  Total due:    %s\n", res.Obligation.TotalDue)
	}
	if len(res.Hops) > 0 {
		fmt.Fprintf(r.out, "  Final:        %s\n", res.FinalAmount)
	}
	if res.Committed() {
		fmt.Fprintf(r.out, "  Result:       %s (profit %s)\n", positiveStyle.Render("PROFITABLE"), res.Profit)
		return
	}
	fmt.Fprintf(r.out, "  Result:       %s\n", negativeStyle.Render(string(res.Reason)))
	if res.Err != nil {
		fmt.Fprintf(r.out, "  Error:        %s\n", mutedStyle.Render(res.Err.Error()))
	}
}

// PrintPools prints the pool book with spot prices quoted in token1.
func (r *ConsoleReporter) PrintPools(pools []pricingDomain.Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, headerStyle.Render(fmt.Sprintf("POOLS (%d)", len(pools))))
	fmt.Fprintf(r.out, "%-14s %-42s %6s %24s %24s %14s\n", "PAIR", "ACCOUNT", "FEE", "RESERVE0", "RESERVE1", "PRICE")
	for _, p := range pools {
		price := "-"
		if sp, err := p.SpotPrice(p.Key.Token0()); err == nil {
			price = sp.Rate().StringFixed(6)
		}
		fmt.Fprintf(r.out, "%-14s %-42s %6s %24s %24s %14s\n",
			p.Key.String(),
			p.Address.Hex(),
			fmt.Sprintf("%dbp", p.Fee),
			p.Reserve0.StringFixed(4),
			p.Reserve1.StringFixed(4),
			price,
		)
	}
}

// PrintBalance prints one balance line.
func (r *ConsoleReporter) PrintBalance(owner string, amt asset.Amount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s balance: %s\n", owner, amt)
}

func (r *ConsoleReporter) printHops(hops []domain.HopQuote) {
	if len(hops) == 0 {
		return
	}
	fmt.Fprintln(r.out, headerStyle.Render("HOPS"))
	for i, h := range hops {
		fmt.Fprintf(r.out, "  %d. %-18s %s -> %s\n", i+1, h.Hop.Pool.String(),
			strings.TrimSpace(h.In.String()), strings.TrimSpace(h.Out.String()))
	}
}
