// Package zerox implements the quote source adapter backed by the 0x swap
// aggregation API. One client serves every supported chain; 0x exposes a
// separate host per chain.
package zerox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// Client fetches swap quotes from the 0x API. It never retries; the
// orchestrator owns retry policy.
type Client struct {
	endpoints  map[int64]string
	apiKey     string
	httpClient *http.Client
}

var _ domain.QuoteSource = (*Client)(nil)

// New creates a 0x client for the given chains. apiKey may be empty for
// keyless access; when set it is sent as the 0x-api-key header.
func New(chains map[int64]domain.ChainConfig, apiKey string, timeout time.Duration) *Client {
	endpoints := make(map[int64]string, len(chains))
	for id, chain := range chains {
		endpoints[id] = chain.QuoteBaseURL
	}
	return &Client{
		endpoints: endpoints,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetQuote fetches a swap quote for tokenIn -> tokenOut on the given chain.
// amountIn is in base units of tokenIn.
func (c *Client) GetQuote(ctx context.Context, chainID int64, tokenIn, tokenOut domain.Token, amountIn *big.Int) (domain.Quote, error) {
	endpoint, ok := c.endpoints[chainID]
	if !ok || endpoint == "" {
		return domain.Quote{}, fmt.Errorf("zerox: %w: no endpoint for chain %d", domain.ErrQuoteSource, chainID)
	}

	params := url.Values{}
	params.Set("sellToken", tokenIn.Address)
	params.Set("buyToken", tokenOut.Address)
	params.Set("sellAmount", amountIn.String())

	reqURL := endpoint + "/swap/v1/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("zerox: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("0x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Quote{}, fmt.Errorf("zerox: quote chain %d: %w", chainID, err)
		}
		// Timeouts and transport failures are both source errors.
		return domain.Quote{}, fmt.Errorf("zerox: quote chain %d: %w: %v", chainID, domain.ErrQuoteSource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("zerox: read response: %w: %v", domain.ErrQuoteSource, err)
	}

	if err := checkQuoteStatus(resp.StatusCode, chainID); err != nil {
		return domain.Quote{}, err
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return domain.Quote{}, fmt.Errorf("zerox: decode quote chain %d: %w: %v", chainID, domain.ErrQuoteSource, err)
	}

	quote, err := qr.toDomainQuote(chainID, tokenIn, tokenOut, time.Now().UTC())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("zerox: quote chain %d: %w", chainID, err)
	}
	return quote, nil
}

// checkQuoteStatus maps upstream HTTP status codes onto the quote error
// taxonomy. Response bodies are deliberately not included: they can carry
// key material and upstream internals that must not reach callers.
func checkQuoteStatus(statusCode int, chainID int64) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("zerox: chain %d: %w", chainID, domain.ErrQuoteSourceAuth)
	case statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound:
		// 0x answers 400/404 when no route or liquidity exists for the pair.
		return fmt.Errorf("zerox: chain %d: %w", chainID, domain.ErrQuoteUnavailable)
	default:
		return fmt.Errorf("zerox: chain %d: HTTP %d: %w", chainID, statusCode, domain.ErrQuoteSource)
	}
}

func errMalformedAmount(field, value string) error {
	return fmt.Errorf("%w: malformed %s %q", domain.ErrQuoteSource, field, value)
}
