package components

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairA = "0x1111111111111111111111111111111111111111"

func row(price string) PoolRow {
	return PoolRow{
		Pair:     "BUSD/WBNB",
		Address:  pairA,
		FeeBps:   25,
		Reserve0: "1000.0000",
		Reserve1: "3.0000",
		Price:    decimal.RequireFromString(price),
	}
}

func TestPoolsComponent_MoveBetweenReads(t *testing.T) {
	p := NewPoolsComponent()

	p.Update(1, []PoolRow{row("0.003")})
	_, ok := p.Move(pairA)
	assert.False(t, ok, "first read has no previous price")

	p.Update(2, []PoolRow{row("0.00303")})
	move, ok := p.Move(pairA)
	require.True(t, ok)
	assert.True(t, move.Equal(decimal.NewFromInt(100)), "move = %s", move)

	view := p.View()
	assert.Contains(t, view, "POOLS @ #2")
	assert.Contains(t, view, "BUSD/WBNB")
	assert.Contains(t, view, "+100.00bp")
	assert.Contains(t, view, "0.003030")
}

func TestPoolsComponent_FailedReadKeepsPreviousPrice(t *testing.T) {
	p := NewPoolsComponent()
	p.Update(1, []PoolRow{row("0.003")})

	failed := PoolRow{Address: pairA, Pair: "?", Err: errors.New("execution reverted")}
	p.Update(2, []PoolRow{failed})
	assert.Equal(t, 1, p.Failed())
	assert.Equal(t, 1, p.Len())
	assert.Contains(t, p.View(), "execution reverted")

	p.Update(3, []PoolRow{row("0.0027")})
	move, ok := p.Move(pairA)
	require.True(t, ok)
	assert.True(t, move.Equal(decimal.NewFromInt(-1000)), "move = %s", move)
}

func TestPoolsComponent_EmptyView(t *testing.T) {
	assert.Equal(t, "Waiting for reserves...", NewPoolsComponent().View())
}

func TestStatusComponent_View(t *testing.T) {
	s := NewStatusComponent()
	assert.Contains(t, s.View(), "waiting for head")

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.Update(HeadStatus{Number: 42, Hash: "0xabcdef0123456789", Timestamp: now.Add(-3 * time.Second)})
	s.RecordReads(2, 1)

	head, ok := s.Head()
	require.True(t, ok)
	assert.Equal(t, uint64(42), head.Number)

	view := s.View()
	assert.Contains(t, view, "#42")
	assert.Contains(t, view, "0xabcd..6789")
	assert.Contains(t, view, "(3s ago)")
	assert.Contains(t, view, "Reads: 2 ok")
	assert.Contains(t, view, "1 failed")
}
