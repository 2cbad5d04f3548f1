package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGasEstimateCostWei(t *testing.T) {
	g := GasEstimate{
		GasPriceWei: big.NewInt(20_000_000_000),
		GasUnits:    150000,
	}
	assert.Equal(t, "3000000000000000", g.CostWei().String())

	assert.Zero(t, GasEstimate{GasUnits: 150000}.CostWei().Sign())
}

func TestGasEstimateGasPriceGwei(t *testing.T) {
	assert.Equal(t, 20.0, GasEstimate{GasPriceWei: big.NewInt(20_000_000_000)}.GasPriceGwei())
	assert.Equal(t, 1.5, GasEstimate{GasPriceWei: big.NewInt(1_500_000_000)}.GasPriceGwei())
	assert.Zero(t, GasEstimate{}.GasPriceGwei())
}

func TestQuoteActiveSources(t *testing.T) {
	q := Quote{Sources: []LiquiditySource{
		{Name: "Uniswap_V3", Proportion: 0.6},
		{Name: "Curve", Proportion: 0},
		{Name: "SushiSwap", Proportion: 0.4},
	}}
	assert.Equal(t, []string{"Uniswap_V3", "SushiSwap"}, q.ActiveSources())
	assert.Empty(t, Quote{}.ActiveSources())
}
