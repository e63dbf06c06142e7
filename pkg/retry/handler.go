package retry

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/timeutil"
)

// Retry executes fn until it succeeds, returns a non-retryable error, or
// MaxRetries retries have been spent. Between attempts it waits with
// exponential backoff and symmetric jitter. fn receives the zero-based
// attempt number.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func(attempt int) (T, failure.ClassifiedError),
	opts ...Option,
) Result[T] {
	o := options{sleep: timeutil.SleepContext}
	for _, opt := range opts {
		opt(&o)
	}

	if retryParam.MaxRetries < 0 {
		return Result[T]{err: &RetryError{
			Message: fmt.Sprintf("max retries cannot be negative: %d", retryParam.MaxRetries),
			Cause:   ErrInvalidParam,
		}}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	attempts := 0
	for attempt := 0; attempt <= retryParam.MaxRetries; attempt++ {
		value, err := fn(attempt)
		attempts++

		if err == nil {
			return Result[T]{value: value, attempts: attempts}
		}
		lastErr = err

		if !failure.IsRetryable(err) {
			return Result[T]{err: err, attempts: attempts}
		}

		if attempt == retryParam.MaxRetries {
			break
		}

		delay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.JitterFraction,
			rng,
			retryParam.BackoffParam,
		)
		if o.onRetry != nil {
			o.onRetry(attempt+1, err, delay)
		}
		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			return Result[T]{
				err: &RetryError{
					Message:   fmt.Sprintf("stopped after %d attempts: %v", attempts, sleepErr),
					Cause:     ErrCancelled,
					Retryable: true,
					Last:      lastErr,
				},
				attempts: attempts,
			}
		}
	}

	return Result[T]{
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", attempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: true, // the caller decides what exhaustion means
			Last:      lastErr,
		},
		attempts: attempts,
	}
}
