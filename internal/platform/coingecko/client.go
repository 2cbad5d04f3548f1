// Package coingecko implements the native-token USD price feed on the
// CoinGecko simple-price API. Unlike the quote adapter, this collaborator
// is allowed to retry: prices are fungible across attempts and the free
// tier drops requests under load.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// tokenIDs maps token symbols to CoinGecko coin IDs.
var tokenIDs = map[string]string{
	"ETH":   "ethereum",
	"MATIC": "matic-network",
	"BNB":   "binancecoin",
	"AVAX":  "avalanche-2",
	"OP":    "optimism",
	"ARB":   "arbitrum",
	"FTM":   "fantom",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"WETH":  "weth",
	"WBTC":  "wrapped-bitcoin",
}

// Config holds client construction parameters.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatePerMinute  int
	MaxRetries     int
}

// Client fetches USD prices from CoinGecko. A token-bucket limiter keeps
// the client inside the free-tier quota across concurrent detection runs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ domain.PriceFeed = (*Client)(nil)

// New creates a CoinGecko client.
func New(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = cfg.RequestTimeout
	rc.Logger = nil

	perMinute := cfg.RatePerMinute
	if perMinute < 1 {
		perMinute = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: rc.StandardClient(),
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

// USDPrices resolves the given token symbols to current USD prices.
// Symbols without a CoinGecko mapping or without a price in the response
// are simply absent from the result; a failed fetch returns
// ErrPriceUnavailable.
func (c *Client) USDPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		upper := strings.ToUpper(sym)
		id, ok := tokenIDs[upper]
		if !ok {
			continue
		}
		if _, seen := idToSymbol[id]; seen {
			continue
		}
		ids = append(ids, id)
		idToSymbol[id] = upper
	}
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("coingecko: rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")

	body, err := c.doGet(ctx, "/simple/price?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("coingecko: simple price: %w: %v", domain.ErrPriceUnavailable, err)
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("coingecko: decode prices: %w: %v", domain.ErrPriceUnavailable, err)
	}

	prices := make(map[string]float64, len(raw))
	for id, sym := range idToSymbol {
		if entry, ok := raw[id]; ok {
			if usd, ok := entry["usd"]; ok {
				prices[sym] = usd
			}
		}
	}
	return prices, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return body, nil
}
