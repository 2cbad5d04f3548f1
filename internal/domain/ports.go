package domain

import (
	"context"
	"math/big"
	"time"
)

// QuoteSource fetches a swap quote for a token pair on one chain. amountIn
// is in base units of tokenIn. Implementations apply their own per-call
// timeout and never retry; retry policy belongs to the orchestrator.
type QuoteSource interface {
	GetQuote(ctx context.Context, chainID int64, tokenIn, tokenOut Token, amountIn *big.Int) (Quote, error)
}

// GasSource reads the current gas price for one chain under the chain's
// configured gas model.
type GasSource interface {
	GasPrice(ctx context.Context, chainID int64) (GasEstimate, error)
}

// PriceFeed resolves token symbols to current USD prices. Missing symbols
// are absent from the returned map rather than being an error; a fully
// failed fetch returns ErrPriceUnavailable.
type PriceFeed interface {
	USDPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// PriceCache provides short-TTL access to recently fetched USD prices so
// bursts of detection runs do not hammer the upstream feed.
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, usd float64, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (usd float64, ts time.Time, err error)
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// SignalBus provides pub/sub fan-out for completed reports and alerts.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter bounds request rates per key, shared across instances when
// backed by Redis.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
