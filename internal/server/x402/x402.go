// Package x402 implements the agent-facing payment surface: x402 accepts
// documents served with status 402, the AP2 agent card, and the gate
// middleware on the paid entrypoint. The gate checks for payment evidence
// in headers only; settlement verification happens at the facilitator.
package x402

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

const (
	protocolVersion = 1

	// EntrypointPath is the AP2 entrypoint gated by payment.
	EntrypointPath = "/entrypoints/cross-dex-arbitrage/invoke"

	entrypointID   = "cross-dex-arbitrage"
	agentName      = "Cross DEX Arbitrage Alert"
	agentVersion   = "1.0.0"
	invokePrice    = "0.05 USDC"
	facilitatorURL = "https://facilitator.daydreams.systems"

	// WellKnownDescription appears in the /.well-known/x402 accepts doc.
	WellKnownDescription = "Detect profitable arbitrage opportunities across multiple DEXs and chains"
	// EntrypointDescription appears in the entrypoint's own 402 challenge.
	EntrypointDescription = "Cross DEX Arbitrage Alert - Find profitable arbitrage opportunities"
)

// Config holds the payment parameters published in the protocol documents.
// FreeMode disables gating entirely while keeping the documents served.
type Config struct {
	FreeMode  bool
	PayTo     string
	MaxAmount string // smallest asset units
	Network   string
	Asset     string
	BaseURL   string
}

func (c Config) resource() string {
	return strings.TrimSuffix(c.BaseURL, "/") + EntrypointPath
}

// acceptsRequirement is one payment option in an x402 accepts document.
type acceptsRequirement struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource"`
	Description       string `json:"description"`
	MimeType          string `json:"mimeType"`
	PayTo             string `json:"payTo"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Asset             string `json:"asset"`
}

type challenge struct {
	X402Version int                  `json:"x402Version"`
	Accepts     []acceptsRequirement `json:"accepts"`
}

// Challenge builds the x402 accepts document for the paid entrypoint.
func Challenge(cfg Config, description string) challenge {
	return challenge{
		X402Version: protocolVersion,
		Accepts: []acceptsRequirement{{
			Scheme:            "exact",
			Network:           cfg.Network,
			MaxAmountRequired: cfg.MaxAmount,
			Resource:          cfg.resource(),
			Description:       description,
			MimeType:          "application/json",
			PayTo:             cfg.PayTo,
			MaxTimeoutSeconds: 30,
			Asset:             cfg.Asset,
		}},
	}
}

// ChallengeHandler serves an accepts document with status 402. Crawlers
// like x402scan probe these endpoints with GET and HEAD and expect the 402
// status even on discovery.
func ChallengeHandler(cfg Config, description string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeDoc(w, http.StatusPaymentRequired, Challenge(cfg, description))
	}
}

// Gate wraps the paid entrypoint. Free mode waves every request through;
// otherwise a request without a payment header is answered with the 402
// challenge instead of reaching the handler.
func Gate(cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "x402"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.FreeMode || paid(r) {
				next.ServeHTTP(w, r)
				return
			}
			log.DebugContext(r.Context(), "unpaid call challenged",
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
			)
			writeDoc(w, http.StatusPaymentRequired, Challenge(cfg, EntrypointDescription))
		})
	}
}

// paid reports whether the request carries payment evidence. Both the
// settlement-txhash header and the standard x402 payment header count.
func paid(r *http.Request) bool {
	return r.Header.Get("X-Payment-Txhash") != "" || r.Header.Get("X-Payment") != ""
}

func writeDoc(w http.ResponseWriter, status int, doc any) {
	data, err := json.Marshal(doc)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
