package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum   = 1
	ChainIDBSC        = 56
	ChainIDBSCTestnet = 97
	ChainIDHardhat    = 31337
)

// Token addresses on BNB Smart Chain mainnet.
var (
	AddrBUSDBSC = common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56")
	AddrWBNBBSC = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	AddrCAKEBSC = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
	AddrCROXBSC = common.HexToAddress("0x2c094F5A7D1146BB93850f629501eB749f6Ed491")
	AddrUSDTBSC = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
)

// Well-known AssetIDs
var (
	IDBSCBNB  = NewNativeAssetID(ChainIDBSC)
	IDBSCBUSD = NewTokenAssetID(ChainIDBSC, AddrBUSDBSC)
	IDBSCWBNB = NewTokenAssetID(ChainIDBSC, AddrWBNBBSC)
	IDBSCCAKE = NewTokenAssetID(ChainIDBSC, AddrCAKEBSC)
	IDBSCCROX = NewTokenAssetID(ChainIDBSC, AddrCROXBSC)
	IDBSCUSDT = NewTokenAssetID(ChainIDBSC, AddrUSDTBSC)
)

// Well-known Assets (pre-created instances)
var (
	BNB  = NewAssetWithName(IDBSCBNB, "BNB", "BNB", 18)
	BUSD = NewAssetWithName(IDBSCBUSD, "BUSD", "Binance USD", 18)
	WBNB = NewAssetWithName(IDBSCWBNB, "WBNB", "Wrapped BNB", 18)
	CAKE = NewAssetWithName(IDBSCCAKE, "CAKE", "PancakeSwap Token", 18)
	CROX = NewAssetWithName(IDBSCCROX, "CROX", "CroxSwap", 18)
	USDT = NewAssetWithName(IDBSCUSDT, "USDT", "Tether USD", 18)
)

// DefaultRegistry returns a registry pre-populated with the BSC assets the
// default pool book trades.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(BNB)
	r.Register(BUSD)
	r.Register(WBNB)
	r.Register(CAKE)
	r.Register(CROX)
	r.Register(USDT)

	return r
}

// MustNewToken creates a token asset with the given parameters.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, name, decimals)
}
