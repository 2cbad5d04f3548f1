package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

type fakeArbService struct {
	report domain.ArbitrageReport
	err    error
	ids    []int64
	calls  int
	gotReq domain.DetectionRequest
}

func (f *fakeArbService) Detect(ctx context.Context, req domain.DetectionRequest) (domain.ArbitrageReport, error) {
	f.calls++
	f.gotReq = req
	return f.report, f.err
}

func (f *fakeArbService) ChainIDs() []int64 { return f.ids }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func profitableReport() domain.ArbitrageReport {
	best := domain.NormalizedRoute{
		ChainID:        137,
		ChainName:      "Polygon",
		DexSources:     []string{"Uniswap_V3"},
		Kind:           domain.QuoteKindDirect,
		GasCostUSD:     0.00180004,
		GasPriceGwei:   20,
		NetSpreadBps:   36.501608,
		EstFillCostUSD: 126.00184321,
		ProfitUSD:      73.00321987,
		Confidence:     79.96,
		QuotedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	alt := best
	alt.ChainID = 1
	alt.ChainName = "Ethereum"
	alt.GasCostUSD = 6.00009
	alt.ProfitUSD = -67.999951
	alt.Confidence = 45.04

	return domain.ArbitrageReport{
		ID:             "run-1",
		TokenIn:        "WETH",
		TokenOut:       "USDC",
		AmountIn:       "10",
		BestRoute:      &best,
		AltRoutes:      []domain.NormalizedRoute{alt},
		GrossSpreadBps: 100.50251256,
		NetSpreadBps:   36.501608,
		EstFillCostUSD: 126.00184321,
		ProfitUSD:      73.00321987,
		IsProfitable:   true,
		TradeSizeUSD:   20000.0000004,
		RoutesAnalyzed: 2,
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func postDetect(t *testing.T, h *ArbitrageHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/arbitrage", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Detect(rec, req)
	return rec
}

func TestDetectHandler_RoundsResponseForDisplay(t *testing.T) {
	svc := &fakeArbService{report: profitableReport(), ids: []int64{1, 137}}
	h := NewArbitrageHandler(svc, testLogger())

	rec := postDetect(t, h, `{"token_in":"WETH","token_out":"USDC","amount_in":"10","chains":[1,137]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var got domain.ArbitrageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 100.5, got.GrossSpreadBps)
	assert.Equal(t, 36.5, got.NetSpreadBps)
	assert.Equal(t, 126.0018, got.EstFillCostUSD)
	assert.Equal(t, 73.0032, got.ProfitUSD)
	assert.Equal(t, 20000.0, got.TradeSizeUSD)
	assert.True(t, got.IsProfitable)

	require.NotNil(t, got.BestRoute)
	assert.Equal(t, 0.0018, got.BestRoute.GasCostUSD)
	assert.Equal(t, 80.0, got.BestRoute.Confidence)
	require.Len(t, got.AltRoutes, 1)
	assert.Equal(t, 45.0, got.AltRoutes[0].Confidence)
	assert.Equal(t, -68.0, got.AltRoutes[0].ProfitUSD)

	assert.Equal(t, domain.DetectionRequest{
		TokenIn:  "WETH",
		TokenOut: "USDC",
		AmountIn: "10",
		ChainIDs: []int64{1, 137},
	}, svc.gotReq)
}

func TestDetectHandler_AmountAcceptsJSONNumber(t *testing.T) {
	svc := &fakeArbService{report: profitableReport(), ids: []int64{1, 137}}
	h := NewArbitrageHandler(svc, testLogger())

	rec := postDetect(t, h, `{"token_in":"WETH","token_out":"USDC","amount_in":0.5,"chains":[1,137]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.5", svc.gotReq.AmountIn)
}

func TestDetectHandler_EmptyChainsScanAllConfigured(t *testing.T) {
	svc := &fakeArbService{report: profitableReport(), ids: []int64{1, 10, 137}}
	h := NewArbitrageHandler(svc, testLogger())

	rec := postDetect(t, h, `{"token_in":"WETH","token_out":"USDC","amount_in":"10"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 10, 137}, svc.gotReq.ChainIDs)
}

func TestDetectHandler_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated", `{"token_in":"WETH"`},
		{"not json", `hello`},
		{"non numeric amount", `{"token_in":"WETH","token_out":"USDC","amount_in":"ten"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeArbService{ids: []int64{1, 137}}
			h := NewArbitrageHandler(svc, testLogger())

			rec := postDetect(t, h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())
			assert.Zero(t, svc.calls)
		})
	}
}

func TestDetectHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown chain",
			err:        fmt.Errorf("%w: chains not available: [999]", domain.ErrUnknownChain),
			wantStatus: http.StatusBadRequest,
			wantError:  "chains not available: [999]",
		},
		{
			name:       "invalid request",
			err:        fmt.Errorf("%w: amount_in must be positive", domain.ErrInvalidRequest),
			wantStatus: http.StatusBadRequest,
			wantError:  "amount_in must be positive",
		},
		{
			name:       "unknown token",
			err:        fmt.Errorf("%w: FOO on chain 1", domain.ErrUnknownToken),
			wantStatus: http.StatusBadRequest,
			wantError:  "FOO on chain 1",
		},
		{
			name:       "price feed down",
			err:        fmt.Errorf("usd prices: %w", domain.ErrPriceUnavailable),
			wantStatus: http.StatusBadGateway,
			wantError:  "price data unavailable",
		},
		{
			name:       "timeout",
			err:        fmt.Errorf("detect: %w", domain.ErrContextDone),
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "detection timed out",
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "detection timed out",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeArbService{err: tt.err, ids: []int64{1, 137}}
			h := NewArbitrageHandler(svc, testLogger())

			rec := postDetect(t, h, `{"token_in":"WETH","token_out":"USDC","amount_in":"10","chains":[1,137]}`)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantError)
		})
	}
}

func TestDetectHandler_NoRoutesCarriesSkips(t *testing.T) {
	svc := &fakeArbService{
		report: domain.ArbitrageReport{
			SkippedChains: []domain.ChainSkip{
				{ChainID: 1, ChainName: "Ethereum", Stage: domain.SkipStageQuote, Reason: "no_liquidity"},
				{ChainID: 137, ChainName: "Polygon", Stage: domain.SkipStageGas, Reason: "gas_unavailable"},
			},
		},
		err: domain.ErrNoRoutesAvailable,
		ids: []int64{1, 137},
	}
	h := NewArbitrageHandler(svc, testLogger())

	rec := postDetect(t, h, `{"token_in":"WETH","token_out":"USDC","amount_in":"10","chains":[1,137]}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Error   string             `json:"error"`
		Skipped []domain.ChainSkip `json:"skipped_chains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no routes available", body.Error)
	require.Len(t, body.Skipped, 2)
	assert.Equal(t, "no_liquidity", body.Skipped[0].Reason)
	assert.Equal(t, "gas_unavailable", body.Skipped[1].Reason)
}
