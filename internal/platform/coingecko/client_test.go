package coingecko

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

func newTestFeed(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
		RatePerMinute:  600,
		MaxRetries:     0,
	})
}

func TestUSDPrices(t *testing.T) {
	var gotIDs, gotVs string
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		gotIDs = r.URL.Query().Get("ids")
		gotVs = r.URL.Query().Get("vs_currencies")
		json.NewEncoder(w).Encode(map[string]map[string]float64{
			"ethereum":      {"usd": 2000.5},
			"matic-network": {"usd": 0.52},
		})
	})

	prices, err := feed.USDPrices(context.Background(), []string{"ETH", "MATIC"})
	require.NoError(t, err)

	ids := strings.Split(gotIDs, ",")
	assert.ElementsMatch(t, []string{"ethereum", "matic-network"}, ids)
	assert.Equal(t, "usd", gotVs)

	assert.Equal(t, map[string]float64{"ETH": 2000.5, "MATIC": 0.52}, prices)
}

func TestUSDPrices_SymbolHandling(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]map[string]float64{
			"ethereum": {"usd": 2000},
		})
	})

	// Lowercase input, an unmapped symbol and a duplicate all resolve to
	// one upstream id; the unmapped one is absent, not an error.
	prices, err := feed.USDPrices(context.Background(), []string{"eth", "ETH", "NOPECOIN"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"ETH": 2000.0}, prices)
}

func TestUSDPrices_NoMappedSymbolsSkipsFetch(t *testing.T) {
	called := false
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	prices, err := feed.USDPrices(context.Background(), []string{"NOPECOIN"})
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.False(t, called)
}

func TestUSDPrices_MissingPriceOmitted(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		// ETH answered without a usd entry, MATIC absent entirely.
		json.NewEncoder(w).Encode(map[string]map[string]float64{
			"ethereum": {},
		})
	})

	prices, err := feed.USDPrices(context.Background(), []string{"ETH", "MATIC"})
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestUSDPrices_UpstreamFailure(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := feed.USDPrices(context.Background(), []string{"ETH"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestUSDPrices_MalformedBody(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := feed.USDPrices(context.Background(), []string{"ETH"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestUSDPrices_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]map[string]float64{"ethereum": {"usd": 1999}})
	}))
	t.Cleanup(srv.Close)

	feed := New(Config{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
		RatePerMinute:  600,
		MaxRetries:     2,
	})

	prices, err := feed.USDPrices(context.Background(), []string{"ETH"})
	require.NoError(t, err)
	assert.Equal(t, 1999.0, prices["ETH"])
	assert.Equal(t, 2, calls)
}
