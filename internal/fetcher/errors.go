package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               = "timeout"
	ErrCauseNetworkFailure        = "connection error"
	ErrCauseCancelled             = "cancelled"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseContentTypeInvalid    = "non-HTML content"
	ErrCauseRedirectLimitExceeded = "reached redirect limit"
	ErrCauseNotFound              = "not found"
	ErrCauseRequestPageForbidden  = "forbidden"
	ErrCauseClientError           = "client error"
	ErrCauseRequestTooMany        = "too many requests"
	ErrCauseRequest5xx            = "5xx"
)

type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseRequest5xx, ErrCauseReadResponseBodyError:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany, ErrCauseRequestPageForbidden:
		return metadata.CausePolicyDisallow
	case ErrCauseContentTypeInvalid:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
