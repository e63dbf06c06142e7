package fileutil

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

type FileErrorCause string

const (
	ErrCausePathError  FileErrorCause = "path error"
	ErrCauseWriteError FileErrorCause = "write error"
	ErrCauseReadError  FileErrorCause = "read error"
	ErrCauseParseError FileErrorCause = "parse error"
	ErrCauseNotExist   FileErrorCause = "not exist"
)

type FileError struct {
	Message   string
	Retryable bool
	Cause     FileErrorCause
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s: %s", e.Cause, e.Message)
}

func (e *FileError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
