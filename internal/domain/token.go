package domain

import "strings"

// Token identifies an ERC-20 style asset on one chain. Decimals is 0 when
// unknown; the normalizer then applies the configured default (or rejects
// the route in strict mode) rather than guessing silently.
type Token struct {
	Symbol   string
	Address  string
	Decimals int
}

// commonTokens maps chain ID to the well-known tokens tradable there.
var commonTokens = map[int64]map[string]Token{
	1: {
		"WETH": {Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
		"USDC": {Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
		"USDT": {Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
		"DAI":  {Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
	},
	137: {
		"WMATIC": {Symbol: "WMATIC", Address: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Decimals: 18},
		"USDC":   {Symbol: "USDC", Address: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", Decimals: 6},
		"USDT":   {Symbol: "USDT", Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6},
		"WETH":   {Symbol: "WETH", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
	},
	42161: {
		"WETH": {Symbol: "WETH", Address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", Decimals: 18},
		"USDC": {Symbol: "USDC", Address: "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", Decimals: 6},
		"USDT": {Symbol: "USDT", Address: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", Decimals: 6},
		"ARB":  {Symbol: "ARB", Address: "0x912CE59144191C1204E64559FE8253a0e49E6548", Decimals: 18},
	},
	10: {
		"WETH": {Symbol: "WETH", Address: "0x4200000000000000000000000000000000000006", Decimals: 18},
		"USDC": {Symbol: "USDC", Address: "0x7F5c764cBc14f9669B88837ca1490cCa17c31607", Decimals: 6},
		"USDT": {Symbol: "USDT", Address: "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58", Decimals: 6},
		"OP":   {Symbol: "OP", Address: "0x4200000000000000000000000000000000000042", Decimals: 18},
	},
	8453: {
		"WETH": {Symbol: "WETH", Address: "0x4200000000000000000000000000000000000006", Decimals: 18},
		"USDC": {Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
		"DAI":  {Symbol: "DAI", Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Decimals: 18},
	},
	56: {
		// Binance-pegged stables use 18 decimals, unlike their
		// mainnet counterparts.
		"WBNB": {Symbol: "WBNB", Address: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", Decimals: 18},
		"USDC": {Symbol: "USDC", Address: "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", Decimals: 18},
		"USDT": {Symbol: "USDT", Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18},
		"BUSD": {Symbol: "BUSD", Address: "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", Decimals: 18},
	},
	43114: {
		"WAVAX": {Symbol: "WAVAX", Address: "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", Decimals: 18},
		"USDC":  {Symbol: "USDC", Address: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Decimals: 6},
		"USDT":  {Symbol: "USDT", Address: "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7", Decimals: 6},
	},
}

// ResolveToken resolves a symbol or raw address to a Token on the given
// chain. A 0x-prefixed input passes through as-is with unknown decimals
// unless it matches a registry entry. Returns false when a symbol is not
// listed on the chain.
func ResolveToken(chainID int64, symbolOrAddress string) (Token, bool) {
	tokens := commonTokens[chainID]

	if strings.HasPrefix(symbolOrAddress, "0x") || strings.HasPrefix(symbolOrAddress, "0X") {
		for _, t := range tokens {
			if strings.EqualFold(t.Address, symbolOrAddress) {
				return t, true
			}
		}
		return Token{Address: symbolOrAddress}, true
	}

	t, ok := tokens[strings.ToUpper(symbolOrAddress)]
	return t, ok
}

// ChainTokenSymbols lists the registry symbols for a chain, for error
// messages and the chains endpoint.
func ChainTokenSymbols(chainID int64) []string {
	tokens := commonTokens[chainID]
	out := make([]string, 0, len(tokens))
	for sym := range tokens {
		out = append(out, sym)
	}
	return out
}
