package failure

import "errors"

type Severity int

// scheduler control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// retryable is implemented by classified errors that know whether another
// attempt could succeed.
type retryable interface {
	IsRetryable() bool
}

// IsRetryable reports whether err (or anything it wraps) asks to be retried.
// Errors that do not say default to their severity.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	var c ClassifiedError
	if errors.As(err, &c) {
		return c.Severity() == SeverityRecoverable
	}
	return false
}
