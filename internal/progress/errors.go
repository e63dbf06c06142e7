package progress

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type ProgressErrorCause string

const (
	ErrCauseStateWrite ProgressErrorCause = "state write failed"
)

type ProgressError struct {
	Message   string
	Retryable bool
	Cause     ProgressErrorCause
}

func (e *ProgressError) Error() string {
	return fmt.Sprintf("progress error: %s: %s", e.Cause, e.Message)
}

func (e *ProgressError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
