package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips
// the file entirely and builds the config from defaults and environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// rpcEnvVars maps chain IDs to the RPC URL environment variables used by
// existing deployments of this service.
var rpcEnvVars = map[int64]string{
	1:     "ETHEREUM_RPC_URL",
	137:   "POLYGON_RPC_URL",
	42161: "ARBITRUM_RPC_URL",
	10:    "OPTIMISM_RPC_URL",
	8453:  "BASE_RPC_URL",
	56:    "BSC_RPC_URL",
	43114: "AVALANCHE_RPC_URL",
}

// applyEnvOverrides reads well-known environment variables and overwrites
// the corresponding Config fields when a variable is set (i.e. not empty).
// This lets operators inject secrets at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "ARBD_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // compatibility alias for PaaS deploys
	setStr(&cfg.Server.APIKey, "ARBD_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBD_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "ARBD_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ARBD_SERVER_RATE_WINDOW")

	// ── Detector ──
	setDuration(&cfg.Detector.ChainTimeout, "ARBD_DETECTOR_CHAIN_TIMEOUT")
	setInt(&cfg.Detector.QuoteAttempts, "ARBD_DETECTOR_QUOTE_ATTEMPTS")
	setInt(&cfg.Detector.MaxAltRoutes, "ARBD_DETECTOR_MAX_ALT_ROUTES")
	setInt(&cfg.Detector.DefaultDexFeeBps, "ARBD_DETECTOR_DEFAULT_DEX_FEE_BPS")
	setInt(&cfg.Detector.DefaultTokenDecimals, "ARBD_DETECTOR_DEFAULT_TOKEN_DECIMALS")
	setBool(&cfg.Detector.StrictTokenDecimals, "ARBD_DETECTOR_STRICT_TOKEN_DECIMALS")
	setDuration(&cfg.Detector.QuoteStaleAfter, "ARBD_DETECTOR_QUOTE_STALE_AFTER")

	// ── 0x ──
	setStr(&cfg.ZeroEx.APIKey, "ARBD_ZEROX_API_KEY")
	setStr(&cfg.ZeroEx.APIKey, "ZEROX_API_KEY") // compatibility alias
	setDuration(&cfg.ZeroEx.RequestTimeout, "ARBD_ZEROX_REQUEST_TIMEOUT")

	// ── CoinGecko ──
	setStr(&cfg.CoinGecko.BaseURL, "ARBD_COINGECKO_BASE_URL")
	setDuration(&cfg.CoinGecko.RequestTimeout, "ARBD_COINGECKO_REQUEST_TIMEOUT")
	setInt(&cfg.CoinGecko.RatePerMinute, "ARBD_COINGECKO_RATE_PER_MINUTE")
	setInt(&cfg.CoinGecko.MaxRetries, "ARBD_COINGECKO_MAX_RETRIES")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBD_REDIS_TLS_ENABLED")

	// ── Price cache ──
	setBool(&cfg.PriceCache.Enabled, "ARBD_PRICE_CACHE_ENABLED")
	setDuration(&cfg.PriceCache.TTL, "ARBD_PRICE_CACHE_TTL")

	// ── Payment ──
	setBool(&cfg.Payment.FreeMode, "ARBD_PAYMENT_FREE_MODE")
	setBool(&cfg.Payment.FreeMode, "FREE_MODE") // compatibility alias
	setStr(&cfg.Payment.PayTo, "ARBD_PAYMENT_PAY_TO")
	setStr(&cfg.Payment.PayTo, "PAYMENT_ADDRESS") // compatibility alias
	setStr(&cfg.Payment.MaxAmount, "ARBD_PAYMENT_MAX_AMOUNT")
	setStr(&cfg.Payment.Network, "ARBD_PAYMENT_NETWORK")
	setStr(&cfg.Payment.Asset, "ARBD_PAYMENT_ASSET")
	setStr(&cfg.Payment.BaseURL, "ARBD_PAYMENT_BASE_URL")
	setStr(&cfg.Payment.BaseURL, "BASE_URL") // compatibility alias

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBD_NOTIFY_EVENTS")
	setFloat64(&cfg.Notify.MinProfitUSD, "ARBD_NOTIFY_MIN_PROFIT_USD")

	// ── Chains ──
	for id, envKey := range rpcEnvVars {
		if v := os.Getenv(envKey); v != "" {
			key := strconv.FormatInt(id, 10)
			ov := cfg.Chains[key]
			ov.RPCURL = v
			cfg.Chains[key] = ov
		}
	}

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ARBD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
