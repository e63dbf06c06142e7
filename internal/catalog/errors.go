package catalog

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type CatalogErrorCause string

const (
	ErrCauseOpenFailure  = "open failed"
	ErrCauseQueryFailure = "query failed"
)

type CatalogError struct {
	Message   string
	Retryable bool
	Cause     CatalogErrorCause
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog error: %s: %s", e.Cause, e.Message)
}

func (e *CatalogError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
