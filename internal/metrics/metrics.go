// Package metrics exposes Prometheus instrumentation for the detection
// engine. Collectors are registered on the default registry; the HTTP
// server mounts promhttp on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DetectionRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbd_detections_total",
		Help: "Detection runs by final status",
	}, []string{"status"})

	ChainSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbd_chain_skips_total",
		Help: "Chains skipped during detection, by pipeline stage",
	}, []string{"stage"})

	QuoteLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbd_quote_latency_seconds",
		Help:    "Time to obtain an aggregator quote",
		Buckets: prometheus.DefBuckets,
	}, []string{"chain"})

	GasPriceGwei = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbd_gas_price_gwei",
		Help: "Last observed gas price in gwei",
	}, []string{"chain"})

	ProfitableReports = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbd_profitable_reports_total",
		Help: "Reports whose best route cleared fill costs",
	})

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbd_ws_clients",
		Help: "Connected websocket stream clients",
	})
)

func init() {
	prometheus.MustRegister(
		DetectionRuns,
		ChainSkips,
		QuoteLatency,
		GasPriceGwei,
		ProfitableReports,
		WSClients,
	)
}
