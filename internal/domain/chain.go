package domain

// GasModel selects how the current gas price is read for a chain.
type GasModel string

const (
	// GasModelLegacy uses the single eth_gasPrice value.
	GasModelLegacy GasModel = "legacy"
	// GasModelDynamic uses base fee plus priority fee (EIP-1559).
	GasModelDynamic GasModel = "eip1559"
)

// ChainConfig describes one supported EVM network. Entries are immutable
// after process start; RPCURL is the only field filled in from runtime
// configuration.
type ChainConfig struct {
	ID             int64
	Name           string
	NativeSymbol   string
	NativeDecimals int
	GasModel       GasModel
	BaseSwapGas    uint64  // gas units for a standard single-hop swap
	AvgBlockTime   float64 // seconds
	RPCURL         string
	QuoteBaseURL   string // 0x API endpoint for this chain
}

// DefaultChains returns the built-in registry of supported networks.
func DefaultChains() map[int64]ChainConfig {
	return map[int64]ChainConfig{
		1: {
			ID: 1, Name: "Ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
			GasModel: GasModelDynamic, BaseSwapGas: 150000, AvgBlockTime: 12,
			QuoteBaseURL: "https://api.0x.org",
		},
		137: {
			ID: 137, Name: "Polygon", NativeSymbol: "MATIC", NativeDecimals: 18,
			GasModel: GasModelDynamic, BaseSwapGas: 180000, AvgBlockTime: 2,
			QuoteBaseURL: "https://polygon.api.0x.org",
		},
		42161: {
			ID: 42161, Name: "Arbitrum", NativeSymbol: "ETH", NativeDecimals: 18,
			GasModel: GasModelDynamic, BaseSwapGas: 200000, AvgBlockTime: 0.25,
			QuoteBaseURL: "https://arbitrum.api.0x.org",
		},
		10: {
			ID: 10, Name: "Optimism", NativeSymbol: "ETH", NativeDecimals: 18,
			GasModel: GasModelDynamic, BaseSwapGas: 180000, AvgBlockTime: 2,
			QuoteBaseURL: "https://optimism.api.0x.org",
		},
		8453: {
			ID: 8453, Name: "Base", NativeSymbol: "ETH", NativeDecimals: 18,
			GasModel: GasModelDynamic, BaseSwapGas: 180000, AvgBlockTime: 2,
			QuoteBaseURL: "https://base.api.0x.org",
		},
		56: {
			ID: 56, Name: "BNB Chain", NativeSymbol: "BNB", NativeDecimals: 18,
			GasModel: GasModelLegacy, BaseSwapGas: 200000, AvgBlockTime: 3,
			QuoteBaseURL: "https://bsc.api.0x.org",
		},
		43114: {
			ID: 43114, Name: "Avalanche", NativeSymbol: "AVAX", NativeDecimals: 18,
			GasModel: GasModelDynamic, BaseSwapGas: 180000, AvgBlockTime: 2,
			QuoteBaseURL: "https://avalanche.api.0x.org",
		},
	}
}
