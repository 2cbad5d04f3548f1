package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeganAI/cross-dex-arbitrage/internal/arbitrage"
	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

type fakeBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if b.messages == nil {
		b.messages = make(map[string][][]byte)
	}
	b.messages[channel] = append(b.messages[channel], payload)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBus) published(channel string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[channel]
}

// stubQuotes answers every chain with a fixed effective price.
type stubQuotes struct {
	effs map[int64]float64
}

func (s stubQuotes) GetQuote(ctx context.Context, chainID int64, tokenIn, tokenOut domain.Token, amountIn *big.Int) (domain.Quote, error) {
	eff, ok := s.effs[chainID]
	if !ok {
		return domain.Quote{}, domain.ErrQuoteUnavailable
	}
	humanIn := arbitrage.HumanUnits(amountIn, tokenIn.Decimals)
	amountOut, err := arbitrage.BaseUnits(strconv.FormatFloat(humanIn*eff, 'f', -1, 64), tokenOut.Decimals)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		ChainID:   chainID,
		Kind:      domain.QuoteKindAggregator,
		Sources:   []domain.LiquiditySource{{Name: "Uniswap_V3", Proportion: 1}},
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		FetchedAt: time.Now(),
	}, nil
}

type stubGas struct{}

func (stubGas) GasPrice(ctx context.Context, chainID int64) (domain.GasEstimate, error) {
	return domain.GasEstimate{
		ChainID:     chainID,
		Model:       domain.GasModelDynamic,
		GasPriceWei: big.NewInt(20_000_000_000),
		FetchedAt:   time.Now(),
	}, nil
}

type stubFeed struct{}

func (stubFeed) USDPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	all := map[string]float64{"WETH": 2000, "USDC": 1, "ETH": 2000, "MATIC": 0.5}
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if p, ok := all[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, bus domain.SignalBus, effs map[int64]float64) *DetectionService {
	t.Helper()
	chains := domain.DefaultChains()
	detector := arbitrage.NewDetector(arbitrage.DetectorConfig{
		Quotes: stubQuotes{effs: effs},
		Gas:    stubGas{},
		Prices: stubFeed{},
		Chains: chains,
		Logger: testLogger(),
	})
	return NewDetectionService(detector, bus, chains, testLogger())
}

func testServiceRequest() domain.DetectionRequest {
	return domain.DetectionRequest{
		TokenIn:  "WETH",
		TokenOut: "USDC",
		AmountIn: "10",
		ChainIDs: []int64{1, 137},
	}
}

func TestServiceDetect_PublishesReportAndAlert(t *testing.T) {
	bus := &fakeBus{}
	// Polygon pays 2.5% over the Ethereum buy venue, comfortably past
	// fees and gas.
	svc := newTestService(t, bus, map[int64]float64{1: 2000, 137: 2050})

	report, err := svc.Detect(context.Background(), testServiceRequest())
	require.NoError(t, err)
	require.True(t, report.IsProfitable)

	reports := bus.published(ChannelReports)
	require.Len(t, reports, 1)
	var published domain.ArbitrageReport
	require.NoError(t, json.Unmarshal(reports[0], &published))
	assert.Equal(t, report.ID, published.ID)
	assert.Equal(t, report.ProfitUSD, published.ProfitUSD)

	alerts := bus.published(ChannelAlerts)
	require.Len(t, alerts, 1)
	var alert map[string]any
	require.NoError(t, json.Unmarshal(alerts[0], &alert))
	assert.Equal(t, "arb_detected", alert["event"])
	assert.Equal(t, report.ID, alert["report_id"])
	assert.Equal(t, "Polygon", alert["best_chain"])
	assert.InDelta(t, report.ProfitUSD, alert["profit_usd"].(float64), 1e-9)
}

func TestServiceDetect_NoAlertWhenUnprofitable(t *testing.T) {
	bus := &fakeBus{}
	// Identical venues leave nothing after costs.
	svc := newTestService(t, bus, map[int64]float64{1: 2000, 137: 2000})

	report, err := svc.Detect(context.Background(), testServiceRequest())
	require.NoError(t, err)
	require.False(t, report.IsProfitable)

	assert.Len(t, bus.published(ChannelReports), 1)
	assert.Empty(t, bus.published(ChannelAlerts))
}

func TestServiceDetect_BusOutageDoesNotFailDetection(t *testing.T) {
	bus := &fakeBus{err: errors.New("redis down")}
	svc := newTestService(t, bus, map[int64]float64{1: 2000, 137: 2050})

	report, err := svc.Detect(context.Background(), testServiceRequest())
	require.NoError(t, err)
	assert.True(t, report.IsProfitable)
}

func TestServiceDetect_NilBus(t *testing.T) {
	svc := newTestService(t, nil, map[int64]float64{1: 2000, 137: 2050})

	report, err := svc.Detect(context.Background(), testServiceRequest())
	require.NoError(t, err)
	assert.True(t, report.IsProfitable)
}

func TestServiceDetect_EngineErrorsPropagate(t *testing.T) {
	bus := &fakeBus{}
	svc := newTestService(t, bus, map[int64]float64{})

	_, err := svc.Detect(context.Background(), testServiceRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoRoutesAvailable)
	assert.Empty(t, bus.published(ChannelReports))
}

func TestChains(t *testing.T) {
	svc := newTestService(t, nil, nil)

	chains := svc.Chains()
	require.Len(t, chains, 7)

	// Sorted ascending by chain ID.
	for i := 1; i < len(chains); i++ {
		assert.Greater(t, chains[i].ChainID, chains[i-1].ChainID)
	}

	eth := chains[0]
	assert.Equal(t, int64(1), eth.ChainID)
	assert.Equal(t, "Ethereum", eth.Name)
	assert.Equal(t, "ETH", eth.Symbol)
	assert.Equal(t, "eip1559", eth.GasModel)
	assert.Equal(t, uint64(150000), eth.BaseSwapGas)
	assert.ElementsMatch(t, []string{"WETH", "USDC", "USDT", "DAI"}, eth.Tokens)
}

func TestChainIDs(t *testing.T) {
	svc := newTestService(t, nil, nil)
	assert.Equal(t, []int64{1, 10, 56, 137, 8453, 42161, 43114}, svc.ChainIDs())
}

func TestHealthy(t *testing.T) {
	svc := newTestService(t, nil, nil)
	assert.NoError(t, svc.Healthy(context.Background()))

	svc = newTestService(t, &fakeBus{}, nil)
	assert.NoError(t, svc.Healthy(context.Background()))

	svc = newTestService(t, &fakeBus{err: errors.New("redis down")}, nil)
	assert.Error(t, svc.Healthy(context.Background()))
}
