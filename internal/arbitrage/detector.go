// Package arbitrage implements the cross-chain detection engine: per-chain
// quote collection, USD normalization, cost-adjusted spread pricing and
// route ranking.
package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
	"github.com/DeganAI/cross-dex-arbitrage/internal/metrics"
)

// DetectorConfig assembles the dependencies and tunables of the engine.
type DetectorConfig struct {
	Quotes domain.QuoteSource
	Gas    domain.GasSource
	Prices domain.PriceFeed
	Chains map[int64]domain.ChainConfig

	// ChainTimeout bounds each per-chain task; a slow chain times out
	// alone without delaying the rest of the run.
	ChainTimeout time.Duration
	// QuoteAttempts is the number of quote fetches per chain before the
	// chain is skipped. Sources themselves never retry.
	QuoteAttempts int
	// MaxAltRoutes caps the alternates listed after the best route.
	MaxAltRoutes int

	Normalizer *Normalizer
	Ranker     *Ranker
	Logger     *slog.Logger
}

// Detector fans a detection request out across chains, collects the routes
// that survive pricing and assembles a ranked report. Each Detect call is
// one isolated run; the detector holds no state between runs and is safe
// for concurrent use.
type Detector struct {
	quotes   domain.QuoteSource
	gas      domain.GasSource
	prices   domain.PriceFeed
	chains   map[int64]domain.ChainConfig
	timeout  time.Duration
	attempts int
	maxAlts  int
	norm     *Normalizer
	ranker   *Ranker
	logger   *slog.Logger
	now      func() time.Time
}

// NewDetector creates a detection engine. Zero tunables fall back to the
// engine defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	d := &Detector{
		quotes:   cfg.Quotes,
		gas:      cfg.Gas,
		prices:   cfg.Prices,
		chains:   cfg.Chains,
		timeout:  cfg.ChainTimeout,
		attempts: cfg.QuoteAttempts,
		maxAlts:  cfg.MaxAltRoutes,
		norm:     cfg.Normalizer,
		ranker:   cfg.Ranker,
		logger:   cfg.Logger.With(slog.String("component", "detector")),
		now:      time.Now,
	}
	if d.timeout <= 0 {
		d.timeout = 5 * time.Second
	}
	if d.attempts <= 0 {
		d.attempts = 1
	}
	if d.maxAlts <= 0 {
		d.maxAlts = 5
	}
	if d.norm == nil {
		d.norm = NewNormalizer(NormalizerConfig{})
	}
	if d.ranker == nil {
		d.ranker = NewRanker(RankerConfig{})
	}
	return d
}

// chainResult is the single message a chain task reports back: either a
// priced route or the reason the chain contributed nothing.
type chainResult struct {
	chainID int64
	route   *domain.NormalizedRoute
	skip    *domain.ChainSkip
}

// Detect runs one full detection cycle: validate, fetch feed prices, fan
// out per-chain tasks, collect, price and rank. Partial chain failures are
// annotated on the report; Detect fails only when the request is invalid,
// the price feed is down, the run is cancelled, or no chain produced a
// usable route. On those failures the returned report still carries the
// skip annotations gathered so far.
func (d *Detector) Detect(ctx context.Context, req domain.DetectionRequest) (domain.ArbitrageReport, error) {
	if err := req.Validate(d.chains); err != nil {
		metrics.DetectionRuns.WithLabelValues("rejected").Inc()
		return domain.ArbitrageReport{}, fmt.Errorf("arbitrage: detect: %w", err)
	}

	start := d.now()
	report := domain.ArbitrageReport{
		ID:       uuid.Must(uuid.NewRandom()).String(),
		TokenIn:  req.TokenIn,
		TokenOut: req.TokenOut,
		AmountIn: req.AmountIn,
	}

	prices, err := d.feedPrices(ctx, req)
	if err != nil {
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		report.Timestamp = d.now()
		return report, fmt.Errorf("arbitrage: detect %s/%s: %w", req.TokenIn, req.TokenOut, err)
	}

	d.logger.Debug("dispatching chain tasks",
		slog.String("report_id", report.ID),
		slog.String("token_in", req.TokenIn),
		slog.String("token_out", req.TokenOut),
		slog.Int("chains", len(req.ChainIDs)),
	)

	results := make(chan chainResult, len(req.ChainIDs))
	var wg sync.WaitGroup
	for _, chainID := range req.ChainIDs {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			results <- d.runChain(ctx, id, req, prices)
		}(chainID)
	}
	wg.Wait()
	close(results)

	routes := make([]domain.NormalizedRoute, 0, len(req.ChainIDs))
	var skips []domain.ChainSkip
	for res := range results {
		if res.skip != nil {
			metrics.ChainSkips.WithLabelValues(res.skip.Stage).Inc()
			skips = append(skips, *res.skip)
			continue
		}
		routes = append(routes, *res.route)
	}
	// Channel order is nondeterministic; fix it before any tie-breaking.
	sort.Slice(routes, func(i, j int) bool { return routes[i].ChainID < routes[j].ChainID })
	sort.Slice(skips, func(i, j int) bool { return skips[i].ChainID < skips[j].ChainID })

	report.SkippedChains = skips
	report.Timestamp = d.now()

	if ctx.Err() != nil {
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		return report, fmt.Errorf("arbitrage: detect %s/%s: %w", req.TokenIn, req.TokenOut, domain.ErrContextDone)
	}
	if len(routes) == 0 {
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		d.logger.Warn("no routes survived",
			slog.String("report_id", report.ID),
			slog.Int("skipped", len(skips)),
		)
		return report, fmt.Errorf("arbitrage: detect %s/%s: %w", req.TokenIn, req.TokenOut, domain.ErrNoRoutesAvailable)
	}

	tradeSize := d.tradeSizeUSD(req, routes, prices)
	if tradeSize <= 0 {
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		return report, fmt.Errorf("arbitrage: detect %s/%s: trade size unpriceable: %w", req.TokenIn, req.TokenOut, domain.ErrNormalization)
	}
	report.TradeSizeUSD = tradeSize

	routes, priceSkips := d.price(routes, tradeSize)
	if len(priceSkips) > 0 {
		for _, s := range priceSkips {
			metrics.ChainSkips.WithLabelValues(s.Stage).Inc()
		}
		report.SkippedChains = append(report.SkippedChains, priceSkips...)
	}
	if len(routes) == 0 {
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		return report, fmt.Errorf("arbitrage: detect %s/%s: %w", req.TokenIn, req.TokenOut, domain.ErrNoRoutesAvailable)
	}

	d.ranker.Rank(routes, d.now())

	best := routes[0]
	report.BestRoute = &best
	alts := routes[1:]
	if len(alts) > d.maxAlts {
		alts = alts[:d.maxAlts]
	}
	report.AltRoutes = alts
	report.RoutesAnalyzed = len(routes)
	report.GrossSpreadBps = grossSpreadBps(routes, best)
	report.NetSpreadBps = best.NetSpreadBps
	report.EstFillCostUSD = best.EstFillCostUSD
	report.ProfitUSD = best.ProfitUSD
	report.IsProfitable = best.ProfitUSD > 0

	metrics.DetectionRuns.WithLabelValues("completed").Inc()
	if report.IsProfitable {
		metrics.ProfitableReports.Inc()
	}
	d.logger.Info("detection completed",
		slog.String("report_id", report.ID),
		slog.Int("routes", len(routes)),
		slog.Int("skipped", len(report.SkippedChains)),
		slog.Float64("profit_usd", report.ProfitUSD),
		slog.Bool("profitable", report.IsProfitable),
		slog.Duration("elapsed", d.now().Sub(start)),
	)
	return report, nil
}

// runChain executes the full per-chain pipeline under its own deadline:
// resolve tokens, fetch a quote, read gas and normalize. Any failure turns
// into a skip annotation; nothing a single chain does can abort the run.
func (d *Detector) runChain(ctx context.Context, chainID int64, req domain.DetectionRequest, prices map[string]float64) chainResult {
	chain := d.chains[chainID]
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	skip := func(stage, reason string) chainResult {
		return chainResult{chainID: chainID, skip: &domain.ChainSkip{
			ChainID:   chainID,
			ChainName: chain.Name,
			Stage:     stage,
			Reason:    reason,
		}}
	}

	tokenIn, ok := domain.ResolveToken(chainID, req.TokenIn)
	if !ok {
		d.logger.Debug("token not resolvable", slog.Int64("chain_id", chainID), slog.String("token", req.TokenIn))
		return skip(domain.SkipStageResolve, "unknown_token")
	}
	tokenOut, ok := domain.ResolveToken(chainID, req.TokenOut)
	if !ok {
		d.logger.Debug("token not resolvable", slog.Int64("chain_id", chainID), slog.String("token", req.TokenOut))
		return skip(domain.SkipStageResolve, "unknown_token")
	}

	inDec, err := d.norm.Decimals(tokenIn)
	if err != nil {
		return skip(domain.SkipStageResolve, skipReason(err))
	}
	amountIn, err := BaseUnits(req.AmountIn, inDec)
	if err != nil {
		return skip(domain.SkipStageResolve, skipReason(err))
	}

	quote, err := d.fetchQuote(ctx, chainID, tokenIn, tokenOut, amountIn)
	if err != nil {
		d.logger.Debug("quote failed",
			slog.Int64("chain_id", chainID),
			slog.String("reason", skipReason(err)),
		)
		return skip(domain.SkipStageQuote, skipReason(err))
	}

	gas, err := d.gas.GasPrice(ctx, chainID)
	if err != nil {
		return skip(domain.SkipStageGas, skipReason(err))
	}
	metrics.GasPriceGwei.WithLabelValues(chain.Name).Set(gas.GasPriceGwei())

	route, err := d.norm.Normalize(quote, gas, chain, prices[chain.NativeSymbol])
	if err != nil {
		return skip(domain.SkipStageNormalize, skipReason(err))
	}
	return chainResult{chainID: chainID, route: &route}
}

// fetchQuote applies the engine's retry budget around the quote source and
// records latency per attempt.
func (d *Detector) fetchQuote(ctx context.Context, chainID int64, tokenIn, tokenOut domain.Token, amountIn *big.Int) (domain.Quote, error) {
	chain := d.chains[chainID]
	var lastErr error
	for attempt := 0; attempt < d.attempts; attempt++ {
		start := time.Now()
		quote, err := d.quotes.GetQuote(ctx, chainID, tokenIn, tokenOut, amountIn)
		metrics.QuoteLatency.WithLabelValues(chain.Name).Observe(time.Since(start).Seconds())
		if err == nil {
			return quote, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return domain.Quote{}, lastErr
}

// retryable reports whether another quote attempt could help. Liquidity
// gaps and auth failures are terminal; cancellation ends the run.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrQuoteUnavailable), errors.Is(err, domain.ErrQuoteSourceAuth):
		return false
	}
	return true
}

// feedPrices fetches USD prices for the request tokens and every involved
// chain's native token in a single feed call.
func (d *Detector) feedPrices(ctx context.Context, req domain.DetectionRequest) (map[string]float64, error) {
	symbols := make([]string, 0, len(req.ChainIDs)+2)
	seen := make(map[string]struct{}, len(req.ChainIDs)+2)
	add := func(sym string) {
		if sym == "" {
			return
		}
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	add(feedSymbol(req.TokenIn))
	add(feedSymbol(req.TokenOut))
	for _, id := range req.ChainIDs {
		add(d.chains[id].NativeSymbol)
	}
	return d.prices.USDPrices(ctx, symbols)
}

// feedSymbol maps a request token to its feed lookup symbol. Raw addresses
// have no feed symbol; trades in those tokens are priced off the output
// side instead.
func feedSymbol(token string) string {
	if strings.HasPrefix(strings.ToLower(token), "0x") {
		return ""
	}
	return strings.ToUpper(token)
}

// tradeSizeUSD computes the USD notional moved by the request. The input
// token's feed price is preferred; failing that, the best output amount
// prices the trade. Zero means the run is unpriceable.
func (d *Detector) tradeSizeUSD(req domain.DetectionRequest, routes []domain.NormalizedRoute, prices map[string]float64) float64 {
	amount, err := strconv.ParseFloat(req.AmountIn, 64)
	if err != nil || amount <= 0 {
		return 0
	}
	if p, ok := prices[feedSymbol(req.TokenIn)]; ok && p > 0 {
		return amount * p
	}

	outPrice, ok := prices[feedSymbol(req.TokenOut)]
	if !ok || outPrice <= 0 {
		return 0
	}
	var bestOut float64
	for _, r := range routes {
		if out := r.EffectivePrice * amount; out > bestOut {
			bestOut = out
		}
	}
	return bestOut * outPrice
}

// price fills the cost-adjusted economics of every route. The route with
// the lowest effective price acts as the buy venue; each candidate is then
// priced as the sell side of a plan that buys there. The buy venue itself
// is priced as a single-leg plan, so it carries zero spread and its own
// costs.
func (d *Detector) price(routes []domain.NormalizedRoute, tradeSize float64) ([]domain.NormalizedRoute, []domain.ChainSkip) {
	buy := 0
	for i := 1; i < len(routes); i++ {
		if routes[i].EffectivePrice < routes[buy].EffectivePrice {
			buy = i
		}
	}
	buyRoute := routes[buy]

	out := make([]domain.NormalizedRoute, 0, len(routes))
	var skips []domain.ChainSkip
	for i, r := range routes {
		legs := []Leg{{FeeBps: r.DexFeeBps, GasUSD: r.GasCostUSD}}
		if i != buy {
			legs = []Leg{
				{FeeBps: buyRoute.DexFeeBps, GasUSD: buyRoute.GasCostUSD},
				{FeeBps: r.DexFeeBps, GasUSD: r.GasCostUSD},
			}
		}
		res, err := ComputeSpread(SpreadInput{
			BuyPrice:     buyRoute.EffectivePrice,
			SellPrice:    r.EffectivePrice,
			TradeSizeUSD: tradeSize,
			Legs:         legs,
		})
		if err != nil {
			skips = append(skips, domain.ChainSkip{
				ChainID:   r.ChainID,
				ChainName: r.ChainName,
				Stage:     domain.SkipStageNormalize,
				Reason:    skipReason(err),
			})
			continue
		}
		r.NetSpreadBps = res.NetBps
		r.EstFillCostUSD = res.EstFillCostUSD
		r.ProfitUSD = res.ProfitUSD
		out = append(out, r)
	}
	return out, skips
}

// grossSpreadBps recomputes the raw spread of the chosen route against the
// cheapest surviving venue.
func grossSpreadBps(routes []domain.NormalizedRoute, best domain.NormalizedRoute) float64 {
	minEff := routes[0].EffectivePrice
	for _, r := range routes[1:] {
		if r.EffectivePrice < minEff {
			minEff = r.EffectivePrice
		}
	}
	if minEff <= 0 {
		return 0
	}
	return (best.EffectivePrice - minEff) / minEff * 10000
}

// skipReason reduces an error to a stable reason keyword. Raw upstream
// error text never reaches report consumers.
func skipReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return "no_liquidity"
	case errors.Is(err, domain.ErrQuoteSourceAuth):
		return "source_auth"
	case errors.Is(err, domain.ErrQuoteSource):
		return "source_error"
	case errors.Is(err, domain.ErrGasSource):
		return "gas_unavailable"
	case errors.Is(err, domain.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, domain.ErrNormalization):
		return "normalization_failed"
	case errors.Is(err, domain.ErrPriceUnavailable):
		return "price_unavailable"
	}
	return "internal_error"
}
