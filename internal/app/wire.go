package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/arbitrage"
	"github.com/DeganAI/cross-dex-arbitrage/internal/cache/redis"
	"github.com/DeganAI/cross-dex-arbitrage/internal/config"
	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
	"github.com/DeganAI/cross-dex-arbitrage/internal/notify"
	"github.com/DeganAI/cross-dex-arbitrage/internal/platform/coingecko"
	"github.com/DeganAI/cross-dex-arbitrage/internal/platform/evmrpc"
	"github.com/DeganAI/cross-dex-arbitrage/internal/platform/zerox"
	"github.com/DeganAI/cross-dex-arbitrage/internal/service"
)

// Dependencies bundles every component the application needs to serve. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Caches and bus
	PriceCache  domain.PriceCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	// Market data sources
	Quotes domain.QuoteSource
	Gas    domain.GasSource
	Prices domain.PriceFeed

	// Services
	Detection *service.DetectionService

	// Notifications
	Notifier      *notify.Notifier
	AlertListener *notify.AlertListener
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	chains := cfg.ChainConfigs()

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	if cfg.PriceCache.Enabled {
		deps.PriceCache = redis.NewPriceCache(redisClient, cfg.PriceCache.TTL.Duration)
	}
	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// --- Market data sources ---
	deps.Quotes = zerox.New(chains, cfg.ZeroEx.APIKey, cfg.ZeroEx.RequestTimeout.Duration)

	gasClient, err := evmrpc.New(chains)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: evmrpc: %w", err)
	}
	closers = append(closers, gasClient.Close)
	deps.Gas = gasClient

	feed := coingecko.New(coingecko.Config{
		BaseURL:        cfg.CoinGecko.BaseURL,
		RequestTimeout: cfg.CoinGecko.RequestTimeout.Duration,
		RatePerMinute:  cfg.CoinGecko.RatePerMinute,
		MaxRetries:     cfg.CoinGecko.MaxRetries,
	})
	deps.Prices = service.NewPriceService(feed, deps.PriceCache, logger)

	// --- Detection engine ---
	detector := arbitrage.NewDetector(arbitrage.DetectorConfig{
		Quotes:        deps.Quotes,
		Gas:           deps.Gas,
		Prices:        deps.Prices,
		Chains:        chains,
		ChainTimeout:  cfg.Detector.ChainTimeout.Duration,
		QuoteAttempts: cfg.Detector.QuoteAttempts,
		MaxAltRoutes:  cfg.Detector.MaxAltRoutes,
		Normalizer: arbitrage.NewNormalizer(arbitrage.NormalizerConfig{
			DefaultTokenDecimals: cfg.Detector.DefaultTokenDecimals,
			StrictTokenDecimals:  cfg.Detector.StrictTokenDecimals,
			DefaultDexFeeBps:     cfg.Detector.DefaultDexFeeBps,
		}),
		Ranker: arbitrage.NewRanker(arbitrage.RankerConfig{
			QuoteStaleAfter: cfg.Detector.QuoteStaleAfter.Duration,
		}),
		Logger: logger,
	})
	deps.Detection = service.NewDetectionService(detector, deps.SignalBus, chains, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	if len(senders) > 0 {
		deps.AlertListener = notify.NewAlertListener(
			deps.SignalBus,
			deps.Notifier,
			service.ChannelAlerts,
			cfg.Notify.MinProfitUSD,
			logger,
		).WithDeduper(redis.NewAlertGuard(redisClient), 10*time.Minute)
	}

	return deps, cleanup, nil
}
