package domain

import "time"

// NormalizedRoute is a fully USD-resolved candidate route. Every cost
// component is present by construction; quotes whose gas or fee legs could
// not be priced are dropped before reaching the ranker, never defaulted.
type NormalizedRoute struct {
	ChainID        int64     `json:"chain_id"`
	ChainName      string    `json:"chain_name"`
	DexSources     []string  `json:"dex_sources"`
	Kind           QuoteKind `json:"kind"`
	TokenIn        string    `json:"token_in"`  // resolved address
	TokenOut       string    `json:"token_out"` // resolved address
	AmountIn       string    `json:"amount_in"` // base units
	AmountOut      string    `json:"amount_out"`
	EffectivePrice float64   `json:"effective_price"` // human amount_out per human amount_in
	GasCostNative  float64   `json:"gas_cost_native"`
	GasCostUSD     float64   `json:"gas_cost_usd"`
	GasPriceGwei   float64   `json:"gas_price_gwei"`
	GasUnits       uint64    `json:"gas_units"`
	GasEstimated   bool      `json:"gas_estimated"` // true when the aggregator supplied the unit count
	DexFeeBps      int       `json:"dex_fee_bps"`
	NetSpreadBps   float64   `json:"net_spread_bps"`
	EstFillCostUSD float64   `json:"est_fill_cost_usd"`
	ProfitUSD      float64   `json:"profit_usd"`
	Confidence     float64   `json:"confidence_score"`
	QuotedAt       time.Time `json:"quoted_at"`
}
