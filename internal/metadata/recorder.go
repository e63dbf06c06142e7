package metadata

import (
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metrics"
	"go.uber.org/zap"
)

/*
Metadata Collected
- Fetch attempts, status codes and latencies
- Retries, connectivity probes, circuit breaker activations
- Terminal outcome of every URL
- Files written

Metadata is write-only.
No component may read metadata to influence crawl decisions.
The crawl's decision-relevant counters live in the progress ledger.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		attempt int,
		crawlDepth int,
	)
	RecordRetry(fetchUrl string, retry int, reason string, delay time.Duration)
	RecordProbe(target string, reachable bool, duration time.Duration)
	RecordOutcome(pageUrl string, kind string, outcome string, reason string)
	RecordCircuitBreak(pageUrl string, cycles int)
	RecordPrompt(pageUrl string, cycle int, maxCycles int, decision string)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type CrawlFinalizer interface {
	RecordFinalCrawlStats(stats CrawlStats)
}

// Recorder writes crawl events to a zap logger and, when present, to the
// run's Prometheus collectors.
// Events are recorded synchronously in the order they are received.
type Recorder struct {
	workerId string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewRecorder(workerId string, logger *zap.Logger, m *metrics.Metrics) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		workerId: workerId,
		logger:   logger.With(zap.String("worker_id", workerId)),
		metrics:  m,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	fields := append([]zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.String("cause", cause.String()),
		zap.String("details", details),
	}, attrFields(attrs)...)
	r.logger.Warn("crawl error", fields...)

	if r.metrics != nil {
		r.metrics.ErrorsTotal.WithLabelValues(packageName, cause.String()).Inc()
	}
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	attempt int,
	crawlDepth int,
) {
	r.logger.Debug("fetch",
		zap.String("url", fetchUrl),
		zap.Int("http_status", httpStatus),
		zap.Duration("duration", duration),
		zap.String("content_type", contentType),
		zap.Int("attempt", attempt),
		zap.Int("depth", crawlDepth),
	)
	if r.metrics != nil {
		r.metrics.FetchesTotal.WithLabelValues(metrics.StatusClass(httpStatus)).Inc()
		r.metrics.FetchDurationSeconds.Observe(duration.Seconds())
	}
}

func (r *Recorder) RecordRetry(fetchUrl string, retry int, reason string, delay time.Duration) {
	r.logger.Info("retrying fetch",
		zap.String("url", fetchUrl),
		zap.Int("retry", retry),
		zap.String("reason", reason),
		zap.Duration("delay", delay),
	)
	if r.metrics != nil {
		r.metrics.RetriesTotal.Inc()
	}
}

func (r *Recorder) RecordProbe(target string, reachable bool, duration time.Duration) {
	result := "reachable"
	if !reachable {
		result = "unreachable"
	}
	r.logger.Info("connectivity probe",
		zap.String("target", target),
		zap.String("result", result),
		zap.Duration("duration", duration),
	)
	if r.metrics != nil {
		r.metrics.ConnectivityProbes.WithLabelValues(result).Inc()
	}
}

func (r *Recorder) RecordOutcome(pageUrl string, kind string, outcome string, reason string) {
	fields := []zap.Field{
		zap.String("url", pageUrl),
		zap.String("kind", kind),
		zap.String("outcome", outcome),
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	r.logger.Info("processed", fields...)
	if r.metrics != nil {
		r.metrics.OutcomesTotal.WithLabelValues(kind, outcome).Inc()
	}
}

func (r *Recorder) RecordCircuitBreak(pageUrl string, cycles int) {
	r.logger.Error("circuit breaker activated, skipping url",
		zap.String("url", pageUrl),
		zap.Int("cycles", cycles),
	)
	if r.metrics != nil {
		r.metrics.CircuitBreakerTotal.Inc()
	}
}

func (r *Recorder) RecordPrompt(pageUrl string, cycle int, maxCycles int, decision string) {
	r.logger.Warn("connectivity lost, asked operator",
		zap.String("url", pageUrl),
		zap.Int("cycle", cycle),
		zap.Int("max_cycles", maxCycles),
		zap.String("decision", decision),
	)
	if r.metrics != nil {
		r.metrics.PromptsTotal.WithLabelValues(decision).Inc()
	}
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := append([]zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}, attrFields(attrs)...)
	r.logger.Debug("artifact written", fields...)
	if r.metrics != nil {
		r.metrics.ArtifactsTotal.WithLabelValues(string(kind)).Inc()
	}
}

/*
RecordFinalCrawlStats records the terminal summary of a crawl.

Contract:
  - MUST be called exactly once per crawl execution, after the loop stops.
  - The stats MUST come from the progress ledger, not from the recorder.
*/
func (r *Recorder) RecordFinalCrawlStats(stats CrawlStats) {
	r.logger.Info("crawl finished",
		zap.Int("processed", stats.Processed),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("filtered", stats.Filtered),
		zap.Int("skipped", stats.Skipped),
		zap.Int("circuit_breaker_activations", stats.CircuitBreakerActivations),
		zap.Int("retry_attempts", stats.RetryAttempts),
		zap.Int("pending", stats.Pending),
		zap.Duration("duration", stats.Duration),
	)
	if r.metrics != nil {
		r.metrics.LastRunSucceededPages.Set(float64(stats.Succeeded))
		r.metrics.FrontierPending.Set(float64(stats.Pending))
	}
}

// SetPending updates the frontier gauge; a no-op without metrics.
func (r *Recorder) SetPending(n int) {
	if r.metrics != nil {
		r.metrics.FrontierPending.Set(float64(n))
	}
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	return fields
}

// NoopSink, struct that implements metadata.Sink but does nothing
// Scheduler (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal
type NoopSink struct{}

func (n *NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}

func (n *NoopSink) RecordFetch(string, int, time.Duration, string, int, int) {}

func (n *NoopSink) RecordRetry(string, int, string, time.Duration) {}

func (n *NoopSink) RecordProbe(string, bool, time.Duration) {}

func (n *NoopSink) RecordOutcome(string, string, string, string) {}

func (n *NoopSink) RecordCircuitBreak(string, int) {}

func (n *NoopSink) RecordPrompt(string, int, int, string) {}

func (n *NoopSink) RecordArtifact(ArtifactKind, string, []Attribute) {}

func (n *NoopSink) RecordFinalCrawlStats(CrawlStats) {}
