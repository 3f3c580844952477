package engagement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scoreDuration measures the engagement aggregation query.
	// Labels: mode (rate, value, wilson)
	scoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "variant_chrome",
		Subsystem: "engagement",
		Name:      "query_duration_seconds",
		Help:      "Engagement aggregation query latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"mode"})

	analyticsFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "variant_chrome",
		Subsystem: "engagement",
		Name:      "query_failures_total",
		Help:      "Engagement queries that failed and fell back to neutral scores",
	})
)
