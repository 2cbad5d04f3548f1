package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// HealthService reports readiness of the detection stack.
type HealthService interface {
	ChainIDs() []int64
	Healthy(ctx context.Context) error
}

// HealthHandler serves liveness and readiness info.
type HealthHandler struct {
	svc      HealthService
	freeMode bool
	logger   *slog.Logger
}

func NewHealthHandler(svc HealthService, freeMode bool, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{svc: svc, freeMode: freeMode, logger: logHandler(logger, "health")}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ids := h.svc.ChainIDs()
	body := map[string]any{
		"status":           "healthy",
		"available_chains": len(ids),
		"chain_ids":        ids,
		"free_mode":        h.freeMode,
	}

	if err := h.svc.Healthy(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check degraded", slog.Any("error", err))
		body["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	writeJSON(w, http.StatusOK, body)
}
