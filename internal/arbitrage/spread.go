package arbitrage

import (
	"fmt"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// Leg is one swap execution in a candidate plan. FeeBps is the DEX fee
// charged on that leg's notional; GasUSD is the leg's chain gas cost.
type Leg struct {
	FeeBps int
	GasUSD float64
}

// SpreadInput describes a candidate plan: acquire at BuyPrice, dispose at
// SellPrice, moving TradeSizeUSD of notional through the given legs. A
// single-leg plan prices one venue on its own; a two-leg plan prices a
// cross-venue round trip.
type SpreadInput struct {
	BuyPrice     float64
	SellPrice    float64
	TradeSizeUSD float64
	Legs         []Leg
}

// SpreadResult carries the cost-adjusted economics of one plan.
type SpreadResult struct {
	GrossBps       float64
	GrossUSD       float64
	FeeUSD         float64
	GasUSD         float64
	EstFillCostUSD float64
	NetBps         float64
	ProfitUSD      float64
	Profitable     bool
}

// ComputeSpread prices a plan. Fees are charged per leg on the full
// notional and gas is summed across legs, so a cross-chain plan pays both
// chains. Non-positive venue prices are rejected.
func ComputeSpread(in SpreadInput) (SpreadResult, error) {
	if in.BuyPrice <= 0 {
		return SpreadResult{}, fmt.Errorf("%w: buy price %v", domain.ErrInvalidPrice, in.BuyPrice)
	}
	if in.SellPrice <= 0 {
		return SpreadResult{}, fmt.Errorf("%w: sell price %v", domain.ErrInvalidPrice, in.SellPrice)
	}
	if in.TradeSizeUSD < 0 {
		return SpreadResult{}, fmt.Errorf("%w: negative trade size %v", domain.ErrNormalization, in.TradeSizeUSD)
	}

	var res SpreadResult
	res.GrossBps = (in.SellPrice - in.BuyPrice) / in.BuyPrice * 10000
	res.GrossUSD = in.TradeSizeUSD * res.GrossBps / 10000

	for _, leg := range in.Legs {
		res.FeeUSD += in.TradeSizeUSD * float64(leg.FeeBps) / 10000
		res.GasUSD += leg.GasUSD
	}
	res.EstFillCostUSD = res.FeeUSD + res.GasUSD
	res.ProfitUSD = res.GrossUSD - res.EstFillCostUSD
	if in.TradeSizeUSD > 0 {
		res.NetBps = res.ProfitUSD / in.TradeSizeUSD * 10000
	}
	res.Profitable = res.ProfitUSD > 0

	return res, nil
}
