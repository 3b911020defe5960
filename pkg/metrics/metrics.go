package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	capturedCounter           *prometheus.CounterVec
	evictedCounter            *prometheus.CounterVec
	toolCallsCounter          *prometheus.CounterVec
	enrichmentFailuresCounter prometheus.Counter
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		capturedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetap_events_captured_total",
				Help: "Total telemetry records captured by kind.",
			},
			[]string{"kind"},
		)

		evictedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetap_events_evicted_total",
				Help: "Total records evicted from capped buffers by kind.",
			},
			[]string{"kind"},
		)

		toolCallsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetap_tool_calls_total",
				Help: "Total MCP tool invocations by tool name.",
			},
			[]string{"tool"},
		)

		enrichmentFailuresCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pagetap_enrichment_failures_total",
				Help: "Total per-record DOM enrichment failures (swallowed).",
			},
		)

		prometheus.MustRegister(
			capturedCounter,
			evictedCounter,
			toolCallsCounter,
			enrichmentFailuresCounter,
		)

		// Ensure counter vectors are visible at /metrics before first increment.
		for _, kind := range []string{"log", "click", "navigation"} {
			capturedCounter.WithLabelValues(kind)
			evictedCounter.WithLabelValues(kind)
		}
	})
}

func IncCaptured(kind string) {
	Init()
	capturedCounter.WithLabelValues(kind).Inc()
}

func AddEvicted(kind string, n int) {
	Init()
	evictedCounter.WithLabelValues(kind).Add(float64(n))
}

func IncToolCall(tool string) {
	Init()
	toolCallsCounter.WithLabelValues(tool).Inc()
}

func IncEnrichmentFailure() {
	Init()
	enrichmentFailuresCounter.Inc()
}
