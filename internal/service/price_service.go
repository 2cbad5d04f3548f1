package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// PriceService resolves USD prices through a short-TTL cache in front of
// the upstream feed. Concurrent detection runs asking for the same symbols
// collapse into one upstream call.
type PriceService struct {
	feed   domain.PriceFeed
	cache  domain.PriceCache // nil disables caching
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewPriceService creates a PriceService. cache may be nil, in which case
// every call goes upstream.
func NewPriceService(feed domain.PriceFeed, cache domain.PriceCache, logger *slog.Logger) *PriceService {
	return &PriceService{
		feed:   feed,
		cache:  cache,
		logger: logger.With(slog.String("component", "price_service")),
		now:    time.Now,
	}
}

// USDPrices returns USD prices for the given symbols, serving from cache
// where possible and fetching only the misses. Symbols the upstream feed
// does not know stay absent from the result.
func (s *PriceService) USDPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	result := make(map[string]float64, len(symbols))
	missing := symbols
	if s.cache != nil {
		cached, err := s.cache.GetPrices(ctx, symbols)
		if err != nil {
			s.logger.WarnContext(ctx, "price cache read failed", slog.String("error", err.Error()))
		} else {
			miss := make([]string, 0, len(symbols))
			for _, sym := range symbols {
				if p, ok := cached[sym]; ok {
					result[sym] = p
					continue
				}
				miss = append(miss, sym)
			}
			missing = miss
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	v, err, _ := s.group.Do(flightKey(missing), func() (any, error) {
		return s.feed.USDPrices(ctx, missing)
	})
	if err != nil {
		return nil, fmt.Errorf("price_service: fetch %d symbols: %w", len(missing), err)
	}

	ts := s.now()
	for sym, p := range v.(map[string]float64) {
		result[sym] = p
		if s.cache == nil {
			continue
		}
		if err := s.cache.SetPrice(ctx, sym, p, ts); err != nil {
			s.logger.DebugContext(ctx, "price cache write failed",
				slog.String("symbol", sym),
				slog.String("error", err.Error()),
			)
		}
	}
	return result, nil
}

// flightKey builds a deterministic singleflight key for a symbol set.
func flightKey(symbols []string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Compile-time interface check.
var _ domain.PriceFeed = (*PriceService)(nil)
