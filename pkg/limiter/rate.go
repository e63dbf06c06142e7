package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/wiki-crawler/pkg/timeutil"
)

// RateLimiter
// Keeps the crawler polite towards each host.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Hold a per-host backoff when the server signals overload (429)
// - Block the caller until the host may be fetched again
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
	Wait(ctx context.Context, host string) error
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		hostTimings:  make(map[string]hostTiming),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		backoffParam: timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
		sleep:        timeutil.SleepContext,
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoffParam = param
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// SetSleeper replaces the blocking wait used by Wait.
func (r *ConcurrentRateLimiter) SetSleeper(sleep func(ctx context.Context, d time.Duration) error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sleep = sleep
}

// Backoff increments the host's backoff counter and recomputes its delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.backoffCount++
	timing.backoffDelay = timeutil.BaseBackoffDelay(timing.backoffCount-1, r.backoffParam)
	r.hostTimings[host] = timing
}

// ResetBackoff clears the host's backoff after a successful request.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.hostTimings[host]
	if exists {
		timing.backoffCount = 0
		timing.backoffDelay = 0
		r.hostTimings[host] = timing
	}
}

func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastFetchAt = time.Now()
	r.hostTimings[host] = timing
}

func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	return timeutil.ComputeJitter(max, r.rng)
}

// ResolveDelay returns how long the caller still has to wait before hitting
// host again: max(BaseDelay, BackoffDelay) + Jitter minus the time elapsed
// since the last fetch. Unknown hosts need no wait.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists || timing.lastFetchAt.IsZero() {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.backoffDelay})
	finalDelay += r.computeJitter(jitter)

	elapsed := time.Since(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until host may be fetched or ctx is done.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	delay := r.ResolveDelay(host)
	r.mu.RLock()
	sleep := r.sleep
	r.mu.RUnlock()
	return sleep(ctx, delay)
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

// HostTimings returns a copy of the per-host state.
func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyMap := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		copyMap[k] = v
	}
	return copyMap
}
