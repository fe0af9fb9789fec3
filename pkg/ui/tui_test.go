package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockchainDomain "github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	pricingApp "github.com/fd1az/flash-arbitrage/business/pricing/app"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

func keyMsg(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return out, cmd
}

func busdWbnb(t *testing.T) pricingApp.PairSnapshot {
	t.Helper()
	addr := common.HexToAddress("0x58F876857a02D6762E0101bb5C46A8c1ED44Dc16")
	pool, err := pricingDomain.NewPool(pricingDomain.MustPoolKey(asset.BUSD, asset.WBNB), addr,
		pricingDomain.DefaultFeeRate, asset.Units(asset.BUSD, 600), asset.Units(asset.WBNB, 2))
	require.NoError(t, err)
	return pricingApp.PairSnapshot{Address: addr, Pool: pool}
}

func TestModel_BlockAndSnapshot(t *testing.T) {
	m := New("flasharb snapshot")
	snap := busdWbnb(t)

	m, _ = update(t, m, BlockMsg{Block: blockchainDomain.Block{Number: 42, Hash: common.HexToHash("0xbeef")}})
	m, _ = update(t, m, SnapshotMsg{Block: 42, Snapshots: []pricingApp.PairSnapshot{
		snap,
		{Address: common.HexToAddress("0x02"), Err: errors.New("no code at address")},
	}})

	view := m.View()
	assert.Contains(t, view, "flasharb snapshot")
	assert.Contains(t, view, "#42")
	assert.Contains(t, view, snap.Pool.Key.String())
	assert.Contains(t, view, "no code at address")
	assert.Contains(t, view, "Reads: 1 ok")
}

func TestRowsFromSnapshots_PricesToken0InToken1(t *testing.T) {
	snap := busdWbnb(t)
	rows := RowsFromSnapshots([]pricingApp.PairSnapshot{snap})
	require.Len(t, rows, 1)

	want, err := snap.Pool.SpotPrice(snap.Pool.Key.Token0())
	require.NoError(t, err)

	r := rows[0]
	assert.Equal(t, snap.Pool.Key.String(), r.Pair)
	assert.Equal(t, snap.Address.Hex(), r.Address)
	assert.Equal(t, uint32(snap.Pool.Fee), r.FeeBps)
	assert.True(t, want.Rate().Equal(r.Price), "price = %s, want %s", r.Price, want.Rate())
	assert.NoError(t, r.Err)
}

func TestModel_PauseSkipsSnapshots(t *testing.T) {
	m := New("t")
	m, _ = update(t, m, keyMsg("p"))
	require.True(t, m.Paused())

	m, _ = update(t, m, SnapshotMsg{Block: 7, Snapshots: []pricingApp.PairSnapshot{busdWbnb(t)}})
	m, _ = update(t, m, BlockMsg{Block: blockchainDomain.Block{Number: 7}})

	view := m.View()
	assert.Contains(t, view, "PAUSED (1 skipped)")
	assert.Contains(t, view, "Waiting for reserves...")
	assert.Contains(t, view, "#7", "head keeps moving while paused")

	m, _ = update(t, m, keyMsg("p"))
	assert.False(t, m.Paused())
}

func TestModel_Quit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m, cmd := update(t, New("t"), keyMsg(k))
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, m.View())
		})
	}
}

func TestModel_KeepsLastErrors(t *testing.T) {
	m := New("t")
	for i := 1; i <= 5; i++ {
		m, _ = update(t, m, ErrorMsg{Err: fmt.Errorf("read %d failed", i)})
	}
	m, _ = update(t, m, ErrorMsg{})

	errs := m.Errors()
	require.Len(t, errs, maxErrors)
	assert.Equal(t, "read 3 failed", errs[0].Message)
	assert.Equal(t, "read 5 failed", errs[2].Message)

	m, _ = update(t, m, keyMsg("c"))
	assert.Empty(t, m.Errors())
}

func TestRun_QuitStopsFeed(t *testing.T) {
	feedDone := make(chan error, 1)
	feed := func(ctx context.Context, send func(tea.Msg)) error {
		send(BlockMsg{Block: blockchainDomain.Block{Number: 1}})
		send(keyMsg("q"))
		<-ctx.Done()
		feedDone <- ctx.Err()
		return ctx.Err()
	}

	err := Run(context.Background(), New("t"), feed, tea.WithInput(nil), tea.WithOutput(io.Discard))
	require.NoError(t, err)

	select {
	case err := <-feedDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("feed was not cancelled after quit")
	}
}

func TestRun_ParentCancelIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := func(fctx context.Context, send func(tea.Msg)) error {
		cancel()
		<-fctx.Done()
		return fctx.Err()
	}

	err := Run(ctx, New("t"), feed, tea.WithInput(nil), tea.WithOutput(io.Discard))
	assert.NoError(t, err)
}
