package fileutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	if err := os.MkdirAll(filepath.Join(targetPath...), 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) failure.ClassifiedError {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteError}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteError}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteError}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteError}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteError}
	}
	return nil
}

// WriteJSONAtomic marshals v with two-space indentation and writes it atomically.
func WriteJSONAtomic(path string, v any) failure.ClassifiedError {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &FileError{Message: err.Error(), Retryable: false, Cause: ErrCauseParseError}
	}
	return WriteFileAtomic(path, append(data, '\n'))
}

// ReadJSON decodes the file at path into v. A missing file yields
// ErrCauseNotExist so callers can treat it as a fresh start.
func ReadJSON(path string, v any) failure.ClassifiedError {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &FileError{Message: path, Cause: ErrCauseNotExist}
		}
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseReadError}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &FileError{Message: fmt.Sprintf("%s: %v", path, err), Cause: ErrCauseParseError}
	}
	return nil
}

// IsNotExist reports whether err is a FileError for a missing file.
func IsNotExist(err error) bool {
	var fileErr *FileError
	return errors.As(err, &fileErr) && fileErr.Cause == ErrCauseNotExist
}
