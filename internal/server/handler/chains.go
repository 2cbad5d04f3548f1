package handler

import (
	"log/slog"
	"net/http"

	"github.com/DeganAI/cross-dex-arbitrage/internal/service"
)

// ChainService lists the configured networks.
type ChainService interface {
	Chains() []service.ChainInfo
}

// ChainsHandler serves the supported-chain registry.
type ChainsHandler struct {
	svc    ChainService
	logger *slog.Logger
}

func NewChainsHandler(svc ChainService, logger *slog.Logger) *ChainsHandler {
	return &ChainsHandler{svc: svc, logger: logHandler(logger, "chains")}
}

// List handles GET /chains.
func (h *ChainsHandler) List(w http.ResponseWriter, r *http.Request) {
	chains := h.svc.Chains()
	writeJSON(w, http.StatusOK, map[string]any{
		"chains": chains,
		"total":  len(chains),
	})
}
