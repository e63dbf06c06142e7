package content

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type ContentErrorCause string

const (
	ErrCauseInsufficientContent ContentErrorCause = "insufficient content"
	ErrCauseExtractionFailed    ContentErrorCause = "extraction failed"
	ErrCausePanic               ContentErrorCause = "processing panic"
)

// ContentError is the single failure indicator returned by a Processor.
// Message is a human readable reason suitable for the progress ledger.
type ContentError struct {
	Message   string
	Retryable bool
	Cause     ContentErrorCause
	Err       error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content error: %s: %s: %v", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("content error: %s: %s", e.Cause, e.Message)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

func (e *ContentError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapContentErrorToMetadataCause(err *ContentError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInsufficientContent, ErrCauseExtractionFailed:
		return metadata.CauseContentInvalid
	case ErrCausePanic:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
