package pancake

// PairABI covers the read-only PancakeSwap V2 pair methods the reader uses.
const PairABI = `[
	{
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "_reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "_reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "_blockTimestampLast", "type": "uint32"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "token0",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "token1",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// Well-known PancakeSwap V2 pairs on BSC mainnet.
const (
	PairBUSDWBNB = "0x58F876857a02D6762E0101bb5C46A8c1ED44Dc16"
	PairCAKEBUSD = "0x804678fa97d91B974ec2af3c843270886528a9E6"
	PairCAKEWBNB = "0x0eD7e52944161450477ee417DE9Cd3a859b14fD0"
)
