package arbitrage

import (
	"sort"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// RankerConfig controls scoring and ordering of priced routes.
type RankerConfig struct {
	// QuoteStaleAfter is the age beyond which a quote is penalized.
	QuoteStaleAfter time.Duration
}

// Ranker orders priced routes by profit and annotates each with a
// confidence score.
type Ranker struct {
	cfg RankerConfig
}

// NewRanker creates a Ranker; a zero stale threshold defaults to 5s.
func NewRanker(cfg RankerConfig) *Ranker {
	if cfg.QuoteStaleAfter <= 0 {
		cfg.QuoteStaleAfter = 5 * time.Second
	}
	return &Ranker{cfg: cfg}
}

// Score produces a 0-100 confidence for a priced route at the given
// reference time. Wider spreads, more live liquidity sources, cheaper gas
// and fresher quotes score higher. The scale is a relative ordering aid,
// not a probability.
func (rk *Ranker) Score(r domain.NormalizedRoute, now time.Time) float64 {
	score := 50.0

	switch spread := r.NetSpreadBps; {
	case spread > 100:
		score += 20
	case spread > 50:
		score += 10
	case spread > 20:
		score += 5
	}

	switch n := len(r.DexSources); {
	case n >= 3:
		score += 15
	case n == 2:
		score += 10
	case n == 1:
		score += 5
	}

	switch gwei := r.GasPriceGwei; {
	case gwei > 0 && gwei < 20:
		score += 10
	case gwei > 0 && gwei < 50:
		score += 5
	}

	if r.GasEstimated {
		score += 5
	}
	if r.Kind == domain.QuoteKindAggregator {
		score += 5
	}
	if now.Sub(r.QuotedAt) > rk.cfg.QuoteStaleAfter {
		score -= 15
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Rank scores every route and sorts the slice in place by profit, breaking
// ties by confidence and then by cheaper gas.
func (rk *Ranker) Rank(routes []domain.NormalizedRoute, now time.Time) {
	for i := range routes {
		routes[i].Confidence = rk.Score(routes[i], now)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.ProfitUSD != b.ProfitUSD {
			return a.ProfitUSD > b.ProfitUSD
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.GasCostUSD < b.GasCostUSD
	})
}
