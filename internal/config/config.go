// Package config defines the top-level configuration for the arbitrage
// detection service and provides validation helpers.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBD_* environment variables.
// It is immutable after Load and passed explicitly to every component.
type Config struct {
	Server     ServerConfig             `toml:"server"`
	Detector   DetectorConfig           `toml:"detector"`
	ZeroEx     ZeroExConfig             `toml:"zerox"`
	CoinGecko  CoinGeckoConfig          `toml:"coingecko"`
	Redis      RedisConfig              `toml:"redis"`
	PriceCache PriceCacheConfig         `toml:"price_cache"`
	Payment    PaymentConfig            `toml:"payment"`
	Notify     NotifyConfig             `toml:"notify"`
	Chains     map[string]ChainOverride `toml:"chains"`
	LogLevel   string                   `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters. RateLimit bounds requests per
// client IP per RateWindow when Redis is reachable; zero disables limiting.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// DetectorConfig holds the tunables of the detection engine.
type DetectorConfig struct {
	// ChainTimeout bounds each per-chain quote+gas task independently of
	// the HTTP clients' own timeouts.
	ChainTimeout duration `toml:"chain_timeout"`
	// QuoteAttempts is the number of quote fetches the orchestrator makes
	// per chain before recording a skip. Adapters themselves never retry.
	QuoteAttempts int `toml:"quote_attempts"`
	MaxAltRoutes  int `toml:"max_alt_routes"`
	// DefaultDexFeeBps is charged once per DEX hop when a route carries no
	// source-specific fee.
	DefaultDexFeeBps int `toml:"default_dex_fee_bps"`
	// DefaultTokenDecimals is applied to tokens missing from the registry.
	// With StrictTokenDecimals set, unknown decimals fail normalization
	// instead.
	DefaultTokenDecimals int      `toml:"default_token_decimals"`
	StrictTokenDecimals  bool     `toml:"strict_token_decimals"`
	QuoteStaleAfter      duration `toml:"quote_stale_after"`
}

// ZeroExConfig holds 0x aggregator API parameters. Per-chain endpoints come
// from the built-in chain registry.
type ZeroExConfig struct {
	APIKey         string   `toml:"api_key"`
	RequestTimeout duration `toml:"request_timeout"`
}

// CoinGeckoConfig holds price-feed parameters.
type CoinGeckoConfig struct {
	BaseURL        string   `toml:"base_url"`
	RequestTimeout duration `toml:"request_timeout"`
	RatePerMinute  int      `toml:"rate_per_minute"`
	MaxRetries     int      `toml:"max_retries"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PriceCacheConfig controls the short-TTL USD price cache. Prices are only
// ever cached briefly; gas and quotes are never cached at all.
type PriceCacheConfig struct {
	Enabled bool     `toml:"enabled"`
	TTL     duration `toml:"ttl"`
}

// PaymentConfig holds the x402 gating parameters. FreeMode leaves all
// endpoints open; paid mode answers unpaid detection calls with 402 and
// the accepts document.
type PaymentConfig struct {
	FreeMode  bool   `toml:"free_mode"`
	PayTo     string `toml:"pay_to"`
	MaxAmount string `toml:"max_amount"` // smallest asset units
	Network   string `toml:"network"`
	Asset     string `toml:"asset"`
	BaseURL   string `toml:"base_url"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	MinProfitUSD      float64  `toml:"min_profit_usd"`
}

// ChainOverride carries per-chain settings that vary by deployment. Keys in
// the TOML table are chain IDs: [chains.1] rpc_url = "...".
type ChainOverride struct {
	RPCURL string `toml:"rpc_url"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"*"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Detector: DetectorConfig{
			ChainTimeout:         duration{5 * time.Second},
			QuoteAttempts:        1,
			MaxAltRoutes:         5,
			DefaultDexFeeBps:     30,
			DefaultTokenDecimals: 18,
			StrictTokenDecimals:  false,
			QuoteStaleAfter:      duration{5 * time.Second},
		},
		ZeroEx: ZeroExConfig{
			RequestTimeout: duration{15 * time.Second},
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:        "https://api.coingecko.com/api/v3",
			RequestTimeout: duration{10 * time.Second},
			RatePerMinute:  30,
			MaxRetries:     3,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		PriceCache: PriceCacheConfig{
			Enabled: true,
			TTL:     duration{30 * time.Second},
		},
		Payment: PaymentConfig{
			FreeMode:  true,
			PayTo:     "0x01D11F7e1a46AbFC6092d7be484895D2d505095c",
			MaxAmount: "50000", // 0.05 USDC at 6 decimals
			Network:   "base",
			Asset:     "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
		Notify: NotifyConfig{
			Events:       []string{"arb_detected", "error"},
			MinProfitUSD: 0,
		},
		Chains:   map[string]ChainOverride{},
		LogLevel: "info",
	}
}

// ChainConfigs merges the built-in chain registry with per-chain overrides
// and returns only the chains that have an RPC endpoint configured; a chain
// without one cannot serve gas estimates and is treated as unavailable.
func (c *Config) ChainConfigs() map[int64]domain.ChainConfig {
	out := make(map[int64]domain.ChainConfig)
	for id, chain := range domain.DefaultChains() {
		if ov, ok := c.Chains[strconv.FormatInt(id, 10)]; ok && ov.RPCURL != "" {
			chain.RPCURL = ov.RPCURL
		}
		if chain.RPCURL != "" {
			out[id] = chain
		}
	}
	return out
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Detector.ChainTimeout.Duration <= 0 {
		errs = append(errs, "detector: chain_timeout must be positive")
	}
	if c.Detector.QuoteAttempts < 1 {
		errs = append(errs, "detector: quote_attempts must be >= 1")
	}
	if c.Detector.MaxAltRoutes < 0 {
		errs = append(errs, "detector: max_alt_routes must be >= 0")
	}
	if c.Detector.DefaultDexFeeBps < 0 || c.Detector.DefaultDexFeeBps > 10000 {
		errs = append(errs, fmt.Sprintf("detector: default_dex_fee_bps must be 0-10000, got %d", c.Detector.DefaultDexFeeBps))
	}
	if c.Detector.DefaultTokenDecimals < 0 || c.Detector.DefaultTokenDecimals > 36 {
		errs = append(errs, fmt.Sprintf("detector: default_token_decimals must be 0-36, got %d", c.Detector.DefaultTokenDecimals))
	}
	if c.Detector.QuoteStaleAfter.Duration <= 0 {
		errs = append(errs, "detector: quote_stale_after must be positive")
	}

	if c.ZeroEx.RequestTimeout.Duration <= 0 {
		errs = append(errs, "zerox: request_timeout must be positive")
	}

	if c.CoinGecko.BaseURL == "" {
		errs = append(errs, "coingecko: base_url must not be empty")
	}
	if c.CoinGecko.RatePerMinute < 1 {
		errs = append(errs, "coingecko: rate_per_minute must be >= 1")
	}

	if c.PriceCache.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when price_cache is enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.PriceCache.TTL.Duration <= 0 {
			errs = append(errs, "price_cache: ttl must be positive")
		}
	}

	if !c.Payment.FreeMode {
		if c.Payment.PayTo == "" {
			errs = append(errs, "payment: pay_to is required when free_mode is off")
		}
		if c.Payment.MaxAmount == "" {
			errs = append(errs, "payment: max_amount is required when free_mode is off")
		}
	}

	for key := range c.Chains {
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			errs = append(errs, fmt.Sprintf("chains: %q is not a numeric chain id", key))
		}
	}
	if len(c.ChainConfigs()) == 0 {
		errs = append(errs, "chains: no rpc_url configured for any supported chain")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
