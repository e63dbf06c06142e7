package retry

import (
	"context"
	"time"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
type RetryParam struct {
	// MaxRetries counts retries after the first attempt, so a call makes at
	// most MaxRetries+1 attempts.
	MaxRetries     int
	JitterFraction float64
	RandomSeed     int64
	BackoffParam   timeutil.BackoffParam
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(
	maxRetries int,
	jitterFraction float64,
	randomSeed int64,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		MaxRetries:     maxRetries,
		JitterFraction: jitterFraction,
		RandomSeed:     randomSeed,
		BackoffParam:   backoffParam,
	}
}

// Result is the outcome of a retried call.
type Result[T any] struct {
	value    T
	err      failure.ClassifiedError
	attempts int
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() failure.ClassifiedError {
	return r.err
}

func (r Result[T]) IsFailure() bool {
	return r.err != nil
}

// Attempts is the number of times the function was invoked.
func (r Result[T]) Attempts() int {
	return r.attempts
}

// Retries is Attempts minus the first try.
func (r Result[T]) Retries() int {
	if r.attempts == 0 {
		return 0
	}
	return r.attempts - 1
}

// Sleeper waits between attempts. It must return early with an error when
// ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryHook observes every scheduled retry before the wait starts.
type RetryHook func(attempt int, err failure.ClassifiedError, delay time.Duration)

type options struct {
	sleep   Sleeper
	onRetry RetryHook
}

type Option func(*options)

// WithSleeper replaces the real-time wait, mostly for tests.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleep = s
		}
	}
}

func WithOnRetry(h RetryHook) Option {
	return func(o *options) {
		o.onRetry = h
	}
}
