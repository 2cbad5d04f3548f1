package handler

import (
	"net/http"
)

// IndexHandler serves the service descriptor at the root path.
type IndexHandler struct {
	version string
}

func NewIndexHandler(version string) *IndexHandler {
	return &IndexHandler{version: version}
}

// Index handles GET /. It advertises the API surface so agents landing on
// the root can discover the paid entrypoint and its metadata documents.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "cross-dex-arbitrage",
		"version": h.version,
		"endpoints": map[string]string{
			"health":     "GET /health",
			"chains":     "GET /chains",
			"arbitrage":  "POST /arbitrage",
			"stream":     "GET /ws",
			"metrics":    "GET /metrics",
			"agent_card": "GET /.well-known/agent.json",
			"x402":       "GET /.well-known/x402",
			"invoke":     "POST /entrypoints/cross-dex-arbitrage/invoke",
		},
	})
}
