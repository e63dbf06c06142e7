package frontier

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type StateErrorCause string

const (
	ErrCauseStateWrite StateErrorCause = "state write failed"
)

type StateError struct {
	Message   string
	Retryable bool
	Cause     StateErrorCause
}

func (e *StateError) Error() string {
	return fmt.Sprintf("frontier state error: %s: %s", e.Cause, e.Message)
}

func (e *StateError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *StateError) IsRetryable() bool {
	return e.Retryable
}

func mapStateErrorToMetadataCause(err *StateError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseStateWrite:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
