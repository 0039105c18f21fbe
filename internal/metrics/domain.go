package metrics

import "github.com/prometheus/client_golang/prometheus"

// Coin search and identification metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numisight",
			Name:      "searches_total",
			Help:      "Total number of text searches",
		},
		[]string{"status"},
	)

	IdentificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numisight",
			Name:      "identifications_total",
			Help:      "Total number of image identifications",
		},
		[]string{"status"},
	)

	WebEngineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numisight",
			Name:      "web_engine_errors_total",
			Help:      "Search engine queries that failed and were skipped",
		},
		[]string{"engine"},
	)

	WebPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numisight",
			Name:      "web_pages_total",
			Help:      "Fetched result pages by outcome",
		},
		[]string{"result"}, // "relevant" / "irrelevant" / "error"
	)

	ClassifierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "numisight",
			Name:      "classifier_duration_seconds",
			Help:      "Vision model classification latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "status"},
	)
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
