package limiter

import "time"

// per-host bookkeeping used to space out requests
type hostTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	backoffCount int
}

func (h hostTiming) BackoffDelay() time.Duration {
	return h.backoffDelay
}

func (h hostTiming) LastFetchAt() time.Time {
	return h.lastFetchAt
}

func (h hostTiming) BackoffCount() int {
	return h.backoffCount
}
