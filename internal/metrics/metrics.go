// Package metrics exposes Prometheus collectors for a crawl run.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one crawl. Collectors are registered on
// the registry given to New, so tests can use a private registry.
type Metrics struct {
	FetchesTotal          *prometheus.CounterVec
	FetchDurationSeconds  prometheus.Histogram
	OutcomesTotal         *prometheus.CounterVec
	RetriesTotal          prometheus.Counter
	CircuitBreakerTotal   prometheus.Counter
	ConnectivityProbes    *prometheus.CounterVec
	ErrorsTotal           *prometheus.CounterVec
	ArtifactsTotal        *prometheus.CounterVec
	PromptsTotal          *prometheus.CounterVec
	FrontierPending       prometheus.Gauge
	LastRunSucceededPages prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikicrawl_fetches_total",
				Help: "HTTP fetch attempts, labeled by response status class.",
			},
			[]string{"status_class"},
		),
		FetchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wikicrawl_fetch_duration_seconds",
				Help:    "Latency of single HTTP fetch attempts.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikicrawl_outcomes_total",
				Help: "Terminal outcomes of work items, labeled by page kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		RetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wikicrawl_retries_total",
				Help: "Retries scheduled after temporary failures.",
			},
		),
		CircuitBreakerTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wikicrawl_circuit_breaker_activations_total",
				Help: "URLs force-skipped after exhausting user retry cycles.",
			},
		),
		ConnectivityProbes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikicrawl_connectivity_probes_total",
				Help: "Connectivity probes, labeled by result.",
			},
			[]string{"result"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikicrawl_errors_total",
				Help: "Recorded errors, labeled by package and cause.",
			},
			[]string{"package", "cause"},
		),
		ArtifactsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikicrawl_artifacts_total",
				Help: "Files written, labeled by artifact kind.",
			},
			[]string{"kind"},
		),
		PromptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikicrawl_prompts_total",
				Help: "Continue-or-skip prompts, labeled by decision.",
			},
			[]string{"decision"},
		),
		FrontierPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wikicrawl_frontier_pending",
				Help: "URLs waiting in the frontier.",
			},
		),
		LastRunSucceededPages: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wikicrawl_last_run_succeeded_pages",
				Help: "Pages that succeeded in the last completed run.",
			},
		),
	}
}

// StatusClass buckets an HTTP status into "2xx".."5xx", or "error" when no
// response was received.
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "error"
	}
}

// Handler returns an http.Handler exposing the collectors of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
