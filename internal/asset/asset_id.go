// Package asset models on-chain assets and integer amounts of them.
// Arithmetic stays on big.Int in smallest units; decimal.Decimal only appears
// at the parsing and display boundary.
package asset

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID identifies an asset by chain and contract address. Native coins
// carry the zero address. The symbol is never identity.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a chain's native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID creates an AssetID for a BEP20/ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{
		chainID: chainID,
		address: addr,
	}
}

// ChainID returns the chain ID.
func (id AssetID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address (zero for native coins).
func (id AssetID) Address() common.Address {
	return id.address
}

// IsNative returns true if this is a native coin.
func (id AssetID) IsNative() bool {
	return id.address == (common.Address{})
}

// IsToken returns true if this is a token contract.
func (id AssetID) IsToken() bool {
	return id.address != (common.Address{})
}

// Less orders ids by chain, then by address bytes. Pool pairs are normalised
// with it the same way a V2 factory sorts token0/token1.
func (id AssetID) Less(other AssetID) bool {
	if id.chainID != other.chainID {
		return id.chainID < other.chainID
	}
	return bytes.Compare(id.address.Bytes(), other.address.Bytes()) < 0
}

func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
