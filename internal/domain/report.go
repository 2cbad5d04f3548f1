package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Skip stages recorded when a requested chain produces no route.
const (
	SkipStageResolve   = "resolve"
	SkipStageQuote     = "quote"
	SkipStageGas       = "gas"
	SkipStageNormalize = "normalize"
)

// ChainSkip records why one requested chain contributed no route to a
// report. Partial failures never abort a run; they are annotated here.
type ChainSkip struct {
	ChainID   int64  `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}

// DetectionRequest is the input to one arbitrage detection run. AmountIn
// is a human-scale decimal string ("1000", "0.5"); conversion to token
// base units happens per chain once decimals are resolved.
type DetectionRequest struct {
	TokenIn  string
	TokenOut string
	AmountIn string
	ChainIDs []int64
}

// Validate checks the request against the configured chain set. It runs
// before any dispatch, so an invalid request never triggers network calls.
func (r DetectionRequest) Validate(chains map[int64]ChainConfig) error {
	if r.TokenIn == "" || r.TokenOut == "" {
		return fmt.Errorf("%w: token_in and token_out are required", ErrInvalidRequest)
	}

	amount, err := strconv.ParseFloat(r.AmountIn, 64)
	if err != nil {
		return fmt.Errorf("%w: amount_in %q is not a number", ErrInvalidRequest, r.AmountIn)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount_in must be positive", ErrInvalidRequest)
	}

	if len(r.ChainIDs) < 2 {
		return fmt.Errorf("%w: need at least 2 chains to compare", ErrInvalidRequest)
	}

	var unknown []int64
	for _, id := range r.ChainIDs {
		if _, ok := chains[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: chains not available: %v", ErrUnknownChain, unknown)
	}

	return nil
}

// ArbitrageReport is the terminal artifact of one detection run. Immutable
// and never persisted; it is serialized to the caller and optionally
// broadcast to alert subscribers.
type ArbitrageReport struct {
	ID             string            `json:"id"`
	TokenIn        string            `json:"token_in"`
	TokenOut       string            `json:"token_out"`
	AmountIn       string            `json:"amount_in"`
	BestRoute      *NormalizedRoute  `json:"best_route"`
	AltRoutes      []NormalizedRoute `json:"alt_routes"`
	GrossSpreadBps float64           `json:"gross_spread_bps"`
	NetSpreadBps   float64           `json:"net_spread_bps"`
	EstFillCostUSD float64           `json:"est_fill_cost_usd"`
	ProfitUSD      float64           `json:"profit_usd"`
	IsProfitable   bool              `json:"is_profitable"`
	TradeSizeUSD   float64           `json:"trade_size_usd"`
	RoutesAnalyzed int               `json:"routes_analyzed"`
	SkippedChains  []ChainSkip       `json:"skipped_chains,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}
