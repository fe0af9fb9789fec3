// Package ui provides the Bubble Tea view for following live pool reserves.
package ui

import (
	blockchainDomain "github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	pricingApp "github.com/fd1az/flash-arbitrage/business/pricing/app"
)

// Message types for TUI updates

// BlockMsg is sent when a new chain head is seen.
type BlockMsg struct {
	Block blockchainDomain.Block
}

// SnapshotMsg carries the pair reads taken at a block.
type SnapshotMsg struct {
	Block     uint64
	Snapshots []pricingApp.PairSnapshot
}

// ErrorMsg is sent when the feed fails outside a single pair read.
type ErrorMsg struct {
	Err error
}
