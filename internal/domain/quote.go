package domain

import (
	"math/big"
	"time"
)

// QuoteKind distinguishes aggregator-routed quotes from quotes taken
// directly off a single DEX.
type QuoteKind string

const (
	QuoteKindAggregator QuoteKind = "aggregator"
	QuoteKindDirect     QuoteKind = "direct"
)

// LiquiditySource is one upstream DEX contributing to a quote's fill.
type LiquiditySource struct {
	Name       string
	Proportion float64
}

// Quote is a single-chain price quote for a token pair. Amounts are in
// base units of the respective token. Immutable once created; quotes live
// only for the duration of one detection run.
type Quote struct {
	ChainID   int64
	Kind      QuoteKind
	Sources   []LiquiditySource
	TokenIn   Token
	TokenOut  Token
	AmountIn  *big.Int
	AmountOut *big.Int
	RawPrice  float64 // price as reported upstream, informational
	GasUnits  uint64  // upstream gas estimate, 0 when absent
	FetchedAt time.Time
}

// ActiveSources returns the names of sources with a non-zero fill
// proportion.
func (q Quote) ActiveSources() []string {
	out := make([]string, 0, len(q.Sources))
	for _, s := range q.Sources {
		if s.Proportion > 0 {
			out = append(out, s.Name)
		}
	}
	return out
}
