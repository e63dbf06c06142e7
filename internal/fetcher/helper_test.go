package fetcher_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/fetcher"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/limiter"
	"github.com/rohmanhakim/wiki-crawler/pkg/retry"
	"github.com/rohmanhakim/wiki-crawler/pkg/timeutil"
	"github.com/stretchr/testify/require"
)

type fetchEvent struct {
	fetchUrl   string
	httpStatus int
	attempt    int
	crawlDepth int
}

type retryEvent struct {
	retry  int
	reason string
	delay  time.Duration
}

// recordingSink is a test double for metadata.MetadataSink.
type recordingSink struct {
	metadata.NoopSink
	mu          sync.Mutex
	fetchEvents []fetchEvent
	retryEvents []retryEvent
	errorCauses []metadata.ErrorCause
	probes      []bool
}

func (s *recordingSink) RecordFetch(fetchUrl string, httpStatus int, _ time.Duration, _ string, attempt int, crawlDepth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchEvents = append(s.fetchEvents, fetchEvent{fetchUrl, httpStatus, attempt, crawlDepth})
}

func (s *recordingSink) RecordRetry(_ string, retry int, reason string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryEvents = append(s.retryEvents, retryEvent{retry, reason, delay})
}

func (s *recordingSink) RecordError(_ time.Time, _ string, _ string, cause metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCauses = append(s.errorCauses, cause)
}

func (s *recordingSink) RecordProbe(_ string, reachable bool, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes = append(s.probes, reachable)
}

// countingProber answers with a fixed result and counts calls.
type countingProber struct {
	reachable bool
	calls     int
}

func (p *countingProber) Probe(context.Context) bool {
	p.calls++
	return p.reachable
}

type engineFixture struct {
	engine  *fetcher.Engine
	sink    *recordingSink
	prober  *countingProber
	limiter *limiter.ConcurrentRateLimiter
	delays  []time.Duration
}

func newEngineFixture(t *testing.T, maxRetries int, probeReachable bool) *engineFixture {
	t.Helper()
	f := &engineFixture{
		sink:    &recordingSink{},
		prober:  &countingProber{reachable: probeReachable},
		limiter: limiter.NewConcurrentRateLimiter(),
	}
	f.limiter.SetSleeper(noSleep)

	param := fetcher.EngineParam{
		UserAgent:  "wiki-crawler-test/1.0",
		Timeout:    2 * time.Second,
		RetryParam: testRetryParam(maxRetries),
	}
	f.engine = fetcher.NewEngine(f.sink, f.limiter, f.prober, param)
	f.engine.SetSleeper(func(_ context.Context, d time.Duration) error {
		f.delays = append(f.delays, d)
		return nil
	})
	return f
}

func testRetryParam(maxRetries int) retry.RetryParam {
	return retry.NewRetryParam(
		maxRetries,
		0.1,
		42,
		timeutil.NewBackoffParam(time.Second, 2.0, time.Minute),
	)
}

func noSleep(context.Context, time.Duration) error {
	return nil
}

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}
