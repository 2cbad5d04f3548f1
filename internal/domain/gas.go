package domain

import (
	"math/big"
	"time"
)

// GasEstimate is the current cost basis for a standard swap on one chain.
// Prices stay in wei until the final USD conversion; no floating point
// accumulates across unit conversions.
type GasEstimate struct {
	ChainID     int64
	Model       GasModel
	GasPriceWei *big.Int // effective price per gas unit
	TipWei      *big.Int // priority-fee component, nil under the legacy model
	GasUnits    uint64   // standard swap gas for the chain
	FetchedAt   time.Time
}

// CostWei returns gas_price * gas_units in wei.
func (g GasEstimate) CostWei() *big.Int {
	if g.GasPriceWei == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(g.GasPriceWei, new(big.Int).SetUint64(g.GasUnits))
}

// GasPriceGwei returns the effective gas price in gwei for display and
// confidence scoring.
func (g GasEstimate) GasPriceGwei() float64 {
	if g.GasPriceWei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(g.GasPriceWei),
		big.NewFloat(1e9),
	).Float64()
	return f
}
