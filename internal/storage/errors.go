package storage

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseWriteFailure  = "write failed"
	ErrCauseEncodeFailure = "encode failed"
	ErrCauseIndexFailure  = "index failed"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Path      string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %s", e.Cause, e.Message)
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapStorageErrorToMetadataCause maps storage-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapStorageErrorToMetadataCause(err *StorageError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseWriteFailure, ErrCauseIndexFailure:
		return metadata.CauseStorageFailure
	case ErrCauseEncodeFailure:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
