package timeutil

import "time"

// Exponential Backoff parameters
// example:
//
//	initialDuration := 1 * time.Second // the configured request delay
//	multiplier := 2.0                  // double on every retry
//	maxDuration := 60 * time.Second    // never wait longer than this

type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

func NewBackoffParam(
	initialDuration time.Duration,
	multiplier float64,
	maxDuration time.Duration,
) BackoffParam {
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration {
	return b.initialDuration
}

func (b BackoffParam) Multiplier() float64 {
	return b.multiplier
}

// MaxDuration is the cap applied after jitter. Zero means uncapped.
func (b BackoffParam) MaxDuration() time.Duration {
	return b.maxDuration
}
