package timeutil

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest of the given durations, or zero for none.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a pseudo-random duration in [0, max).
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// BaseBackoffDelay is the un-jittered wait before the retry that follows the
// given zero-based attempt: initial * multiplier^attempt, capped.
func BaseBackoffDelay(attempt int, param BackoffParam) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(param.initialDuration) * math.Pow(param.multiplier, float64(attempt))
	if param.maxDuration > 0 && delay > float64(param.maxDuration) {
		delay = float64(param.maxDuration)
	}
	if delay < 0 || math.IsNaN(delay) {
		return 0
	}
	return time.Duration(delay)
}

// ExponentialBackoffDelay applies a symmetric jitter of +/- jitterFraction to
// BaseBackoffDelay. The result is never negative and never above the cap.
func ExponentialBackoffDelay(
	attempt int,
	jitterFraction float64,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	base := BaseBackoffDelay(attempt, param)
	if jitterFraction <= 0 || rng == nil || base == 0 {
		return base
	}
	spread := float64(base) * jitterFraction
	delay := float64(base) + spread*(2*rng.Float64()-1)
	if delay < 0 {
		delay = 0
	}
	if param.maxDuration > 0 && delay > float64(param.maxDuration) {
		delay = float64(param.maxDuration)
	}
	return time.Duration(delay)
}

// SleepContext waits for d or until ctx is done, whichever happens first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
