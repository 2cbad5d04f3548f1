package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PriceCache implements domain.PriceCache using Redis hashes. Each symbol's
// USD price is stored as a hash at key "price:{SYMBOL}" with fields "usd"
// and "ts" (Unix nanosecond timestamp), expiring after a short TTL so stale
// feed prices never outlive a detection cycle.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client. Entries
// written through SetPrice expire after ttl; ttl <= 0 disables expiry.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

func priceKey(symbol string) string {
	return "price:" + strings.ToUpper(symbol)
}

// SetPrice stores the latest USD price and timestamp for a symbol.
func (pc *PriceCache) SetPrice(ctx context.Context, symbol string, usd float64, ts time.Time) error {
	key := priceKey(symbol)
	fields := map[string]interface{}{
		"usd": strconv.FormatFloat(usd, 'f', -1, 64),
		"ts":  strconv.FormatInt(ts.UnixNano(), 10),
	}

	pipe := pc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if pc.ttl > 0 {
		pipe.Expire(ctx, key, pc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set price %s: %w", symbol, err)
	}
	return nil
}

// GetPrice retrieves the latest USD price and timestamp for a symbol.
// It returns domain.ErrNotFound when the entry does not exist or has expired.
func (pc *PriceCache) GetPrice(ctx context.Context, symbol string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(symbol)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	usdStr, ok := vals["usd"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	usd, err := strconv.ParseFloat(usdStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", symbol, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", symbol, err)
	}

	return usd, time.Unix(0, tsNano), nil
}

// GetPrices retrieves cached USD prices for multiple symbols using a
// pipeline. Symbols with no live entry are omitted from the result map, so
// callers can fetch only the misses from the upstream feed.
func (pc *PriceCache) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(symbols))
	for _, sym := range symbols {
		cmds[sym] = pipe.HGetAll(ctx, priceKey(sym))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get prices pipeline: %w", err)
	}

	result := make(map[string]float64, len(symbols))
	for sym, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		usdStr, ok := vals["usd"]
		if !ok {
			continue
		}
		usd, err := strconv.ParseFloat(usdStr, 64)
		if err != nil {
			continue
		}
		result[sym] = usd
	}

	return result, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
