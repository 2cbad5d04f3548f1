// Package service coordinates the detection engine with the signal bus,
// caches and outbound notifications.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/arbitrage"
	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// Bus channels used for report fan-out. Subscribers may use the "arb.*"
// pattern to receive both.
const (
	ChannelReports = "arb.reports"
	ChannelAlerts  = "arb.alerts"
)

// DetectionService runs detection requests and fans completed reports out
// to the signal bus. Publishing is best-effort: a bus outage never fails a
// detection call.
type DetectionService struct {
	detector *arbitrage.Detector
	bus      domain.SignalBus
	chains   map[int64]domain.ChainConfig
	logger   *slog.Logger
}

// NewDetectionService creates a DetectionService. bus may be nil when
// fan-out is not wired.
func NewDetectionService(
	detector *arbitrage.Detector,
	bus domain.SignalBus,
	chains map[int64]domain.ChainConfig,
	logger *slog.Logger,
) *DetectionService {
	return &DetectionService{
		detector: detector,
		bus:      bus,
		chains:   chains,
		logger:   logger.With(slog.String("component", "detection_service")),
	}
}

// Detect runs one detection cycle and publishes the outcome. The report is
// returned as produced by the engine; callers own serialization.
func (s *DetectionService) Detect(ctx context.Context, req domain.DetectionRequest) (domain.ArbitrageReport, error) {
	report, err := s.detector.Detect(ctx, req)
	if err != nil {
		return report, err
	}

	s.publishReport(ctx, report)
	if report.IsProfitable {
		s.publishAlert(ctx, report)
	}
	return report, nil
}

func (s *DetectionService) publishReport(ctx context.Context, report domain.ArbitrageReport) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.WarnContext(ctx, "marshal report failed",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, ChannelReports, payload); err != nil {
		s.logger.WarnContext(ctx, "publish report failed",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *DetectionService) publishAlert(ctx context.Context, report domain.ArbitrageReport) {
	if s.bus == nil {
		return
	}
	alert := map[string]any{
		"event":          "arb_detected",
		"report_id":      report.ID,
		"token_in":       report.TokenIn,
		"token_out":      report.TokenOut,
		"profit_usd":     report.ProfitUSD,
		"net_spread_bps": report.NetSpreadBps,
		"timestamp":      report.Timestamp.Format(time.RFC3339Nano),
	}
	if report.BestRoute != nil {
		alert["best_chain"] = report.BestRoute.ChainName
	}
	payload, _ := json.Marshal(alert)
	if err := s.bus.Publish(ctx, ChannelAlerts, payload); err != nil {
		s.logger.WarnContext(ctx, "publish alert failed",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ChainInfo describes one configured chain for API consumers.
type ChainInfo struct {
	ChainID     int64    `json:"chain_id"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	GasModel    string   `json:"gas_model"`
	BaseSwapGas uint64   `json:"base_swap_gas"`
	Tokens      []string `json:"tokens"`
}

// Chains lists the configured chains sorted by chain ID, with the token
// symbols known on each.
func (s *DetectionService) Chains() []ChainInfo {
	out := make([]ChainInfo, 0, len(s.chains))
	for id, c := range s.chains {
		out = append(out, ChainInfo{
			ChainID:     id,
			Name:        c.Name,
			Symbol:      c.NativeSymbol,
			GasModel:    string(c.GasModel),
			BaseSwapGas: c.BaseSwapGas,
			Tokens:      domain.ChainTokenSymbols(id),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// ChainIDs returns all configured chain IDs sorted ascending, used as the
// default scan set when a request names no chains.
func (s *DetectionService) ChainIDs() []int64 {
	out := make([]int64, 0, len(s.chains))
	for id := range s.chains {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Healthy reports bus reachability for the health endpoint. A nil bus is
// healthy; detection does not depend on it.
func (s *DetectionService) Healthy(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}
	if err := s.bus.Publish(ctx, "arb.health", []byte(`{"event":"ping"}`)); err != nil {
		return fmt.Errorf("detection_service: bus ping: %w", err)
	}
	return nil
}
