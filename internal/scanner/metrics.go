package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for scan runs. Registered once on the default
// registry; the API serves them on /metrics.
var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swingscan",
		Name:      "scans_total",
		Help:      "Completed scan runs by outcome.",
	}, []string{"status"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "swingscan",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of one full scan run.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	signalsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swingscan",
		Name:      "signals_emitted_total",
		Help:      "Signals that cleared the strategy gates.",
	})

	actionableEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swingscan",
		Name:      "actionable_signals_total",
		Help:      "Signals that also cleared the actionable filter.",
	})

	symbolsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swingscan",
		Name:      "symbols_scanned_total",
		Help:      "Symbols evaluated across all scan runs.",
	})
)
