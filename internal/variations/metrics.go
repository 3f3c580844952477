package variations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeDisabled   = "disabled"
	outcomeSkipped    = "skipped"
	outcomeNoLanguage = "no_language"
	outcomeNoValue    = "no_value"
	outcomeEmpty      = "empty"
	outcomeListed     = "listed"
	outcomeScored     = "scored"
)

var (
	// processed counts chrome requests by what the processor did with them.
	// Labels: outcome
	processed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "variant_chrome",
		Subsystem: "variations",
		Name:      "requests_total",
		Help:      "Chrome-data requests handled by the test variations processor",
	}, []string{"outcome"})

	configurationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "variant_chrome",
		Subsystem: "variations",
		Name:      "configuration_failures_total",
		Help:      "Test configuration loads that failed; scores were skipped",
	})
)
