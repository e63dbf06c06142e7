package scheduler

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type SchedulerErrorCause string

const (
	ErrCauseInvalidSetup = "invalid setup"
)

type SchedulerError struct {
	Message   string
	Retryable bool
	Cause     SchedulerErrorCause
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler error: %s: %s", e.Cause, e.Message)
}

func (e *SchedulerError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
