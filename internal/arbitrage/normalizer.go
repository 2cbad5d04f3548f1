package arbitrage

import (
	"fmt"
	"math"
	"math/big"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// NormalizerConfig controls unit conversion for quotes entering the engine.
type NormalizerConfig struct {
	// DefaultTokenDecimals applies to tokens whose decimals are unknown.
	DefaultTokenDecimals int
	// StrictTokenDecimals rejects unknown-decimal tokens instead of
	// assuming the default.
	StrictTokenDecimals bool
	// DefaultDexFeeBps is charged per swap leg when the quote carries no
	// source-specific fee.
	DefaultDexFeeBps int
}

// Normalizer converts raw chain quotes and gas estimates into USD-resolved
// routes. A route that cannot be fully priced is rejected, never defaulted.
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer creates a Normalizer, filling zero config fields with the
// engine defaults (18 decimals, 30 bps).
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.DefaultTokenDecimals <= 0 {
		cfg.DefaultTokenDecimals = 18
	}
	if cfg.DefaultDexFeeBps <= 0 {
		cfg.DefaultDexFeeBps = 30
	}
	return &Normalizer{cfg: cfg}
}

// Decimals resolves the base-unit scale of a token. Zero decimals in the
// registry means unknown; strict mode fails those, otherwise the configured
// default applies.
func (n *Normalizer) Decimals(tok domain.Token) (int, error) {
	if tok.Decimals > 0 {
		return tok.Decimals, nil
	}
	if n.cfg.StrictTokenDecimals {
		return 0, fmt.Errorf("%w: unknown decimals for token %s", domain.ErrNormalization, tok.Symbol)
	}
	return n.cfg.DefaultTokenDecimals, nil
}

// Normalize builds a USD-resolved route from one chain's quote and gas
// estimate. nativeUSD is the USD price of the chain's gas token; without it
// the gas leg cannot be priced and the route is rejected.
func (n *Normalizer) Normalize(q domain.Quote, gas domain.GasEstimate, chain domain.ChainConfig, nativeUSD float64) (domain.NormalizedRoute, error) {
	inDec, err := n.Decimals(q.TokenIn)
	if err != nil {
		return domain.NormalizedRoute{}, err
	}
	outDec, err := n.Decimals(q.TokenOut)
	if err != nil {
		return domain.NormalizedRoute{}, err
	}

	amountIn := HumanUnits(q.AmountIn, inDec)
	amountOut := HumanUnits(q.AmountOut, outDec)
	if amountIn <= 0 {
		return domain.NormalizedRoute{}, fmt.Errorf("%w: chain %d: non-positive input amount", domain.ErrNormalization, q.ChainID)
	}
	if amountOut <= 0 {
		return domain.NormalizedRoute{}, fmt.Errorf("%w: chain %d: non-positive output amount", domain.ErrInvalidPrice, q.ChainID)
	}

	eff := amountOut / amountIn
	if eff <= 0 || math.IsNaN(eff) || math.IsInf(eff, 0) {
		return domain.NormalizedRoute{}, fmt.Errorf("%w: chain %d: effective price %v", domain.ErrInvalidPrice, q.ChainID, eff)
	}

	if nativeUSD <= 0 {
		return domain.NormalizedRoute{}, fmt.Errorf("%w: chain %d: no USD price for %s", domain.ErrNormalization, q.ChainID, chain.NativeSymbol)
	}

	units := q.GasUnits
	estimated := units > 0
	if !estimated {
		units = chain.BaseSwapGas
	}
	cost := gas
	cost.GasUnits = units
	gasNative := HumanUnits(cost.CostWei(), chain.NativeDecimals)
	gasUSD := gasNative * nativeUSD

	return domain.NormalizedRoute{
		ChainID:        q.ChainID,
		ChainName:      chain.Name,
		DexSources:     q.ActiveSources(),
		Kind:           q.Kind,
		TokenIn:        q.TokenIn.Address,
		TokenOut:       q.TokenOut.Address,
		AmountIn:       q.AmountIn.String(),
		AmountOut:      q.AmountOut.String(),
		EffectivePrice: eff,
		GasCostNative:  gasNative,
		GasCostUSD:     gasUSD,
		GasPriceGwei:   gas.GasPriceGwei(),
		GasUnits:       units,
		GasEstimated:   estimated,
		DexFeeBps:      n.cfg.DefaultDexFeeBps,
		QuotedAt:       q.FetchedAt,
	}, nil
}

// BaseUnits converts a human-scale decimal amount string into token base
// units at the given scale. The conversion goes through big.Float so
// amounts beyond float64's integer range survive intact.
func BaseUnits(amount string, decimals int) (*big.Int, error) {
	f, ok := new(big.Float).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not a number", domain.ErrNormalization, amount)
	}
	f.Mul(f, new(big.Float).SetInt(pow10(decimals)))
	out, _ := f.Int(nil)
	if out.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount %q is not positive", domain.ErrNormalization, amount)
	}
	return out, nil
}

// HumanUnits converts base units to a human-scale amount at the given
// scale. A nil value converts to zero.
func HumanUnits(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(raw),
		new(big.Float).SetInt(pow10(decimals)),
	).Float64()
	return f
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
