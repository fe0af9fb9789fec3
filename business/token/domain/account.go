// Package domain contains the core domain types for the token context.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// Account is a balance holder: a wallet, a pool or the executor itself.
type Account struct {
	Address common.Address
	Label   string
}

// NewAccount names an address.
func NewAccount(label string, addr common.Address) Account {
	return Account{Address: addr, Label: label}
}

// DeriveAccount creates a deterministic account from a label, used for
// in-memory participants that have no configured address.
func DeriveAccount(label string) Account {
	return Account{
		Address: common.BytesToAddress(crypto.Keccak256([]byte("flasharb:" + label))),
		Label:   label,
	}
}

func (a Account) IsZero() bool {
	return a.Address == (common.Address{})
}

func (a Account) String() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Address.Hex()
}

// Transfer is a completed balance movement, the equivalent of a BEP20
// Transfer event.
type Transfer struct {
	Seq    uint64
	From   Account
	To     Account
	Amount asset.Amount
}
