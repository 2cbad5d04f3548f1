package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// ArbitrageService is the detection surface the handler depends on.
type ArbitrageService interface {
	Detect(ctx context.Context, req domain.DetectionRequest) (domain.ArbitrageReport, error)
	ChainIDs() []int64
}

// ArbitrageHandler serves detection runs over HTTP.
type ArbitrageHandler struct {
	svc    ArbitrageService
	logger *slog.Logger
}

func NewArbitrageHandler(svc ArbitrageService, logger *slog.Logger) *ArbitrageHandler {
	return &ArbitrageHandler{svc: svc, logger: logHandler(logger, "arbitrage")}
}

type detectRequest struct {
	TokenIn  string      `json:"token_in"`
	TokenOut string      `json:"token_out"`
	AmountIn json.Number `json:"amount_in"`
	Chains   []int64     `json:"chains"`
}

// Detect handles POST /arbitrage. An empty chain list means scan every
// configured chain.
func (h *ArbitrageHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	chains := req.Chains
	if len(chains) == 0 {
		chains = h.svc.ChainIDs()
	}

	report, err := h.svc.Detect(r.Context(), domain.DetectionRequest{
		TokenIn:  req.TokenIn,
		TokenOut: req.TokenOut,
		AmountIn: req.AmountIn.String(),
		ChainIDs: chains,
	})
	if err != nil {
		h.writeDetectError(w, r, report, err)
		return
	}

	writeJSON(w, http.StatusOK, roundedReport(report))
}

// writeDetectError maps detection failures to HTTP statuses. Partial-scan
// context (which chains were skipped and why) rides along on the 503 so a
// caller can tell an empty market from a broken one.
func (h *ArbitrageHandler) writeDetectError(w http.ResponseWriter, r *http.Request, report domain.ArbitrageReport, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnknownChain),
		errors.Is(err, domain.ErrUnknownToken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoRoutesAvailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":          "no routes available",
			"skipped_chains": report.SkippedChains,
		})
	case errors.Is(err, domain.ErrPriceUnavailable), errors.Is(err, domain.ErrNormalization):
		writeError(w, http.StatusBadGateway, "price data unavailable")
	case errors.Is(err, domain.ErrContextDone), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "detection timed out")
	default:
		h.logger.ErrorContext(r.Context(), "detection failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// roundedReport returns a presentation copy with display precision: four
// decimals on USD amounts, two on basis points, one on confidence. The
// engine's own numbers stay full precision.
func roundedReport(r domain.ArbitrageReport) domain.ArbitrageReport {
	r.GrossSpreadBps = round(r.GrossSpreadBps, 2)
	r.NetSpreadBps = round(r.NetSpreadBps, 2)
	r.EstFillCostUSD = round(r.EstFillCostUSD, 4)
	r.ProfitUSD = round(r.ProfitUSD, 4)
	r.TradeSizeUSD = round(r.TradeSizeUSD, 4)
	if r.BestRoute != nil {
		best := roundedRoute(*r.BestRoute)
		r.BestRoute = &best
	}
	alts := make([]domain.NormalizedRoute, len(r.AltRoutes))
	for i, alt := range r.AltRoutes {
		alts[i] = roundedRoute(alt)
	}
	r.AltRoutes = alts
	return r
}

func roundedRoute(rt domain.NormalizedRoute) domain.NormalizedRoute {
	rt.GasCostUSD = round(rt.GasCostUSD, 4)
	rt.EstFillCostUSD = round(rt.EstFillCostUSD, 4)
	rt.ProfitUSD = round(rt.ProfitUSD, 4)
	rt.NetSpreadBps = round(rt.NetSpreadBps, 2)
	rt.Confidence = round(rt.Confidence, 1)
	return rt
}
