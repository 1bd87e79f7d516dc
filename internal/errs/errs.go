// Package errs defines the failure taxonomy shared by every processing stage.
//
// Per-record and per-page anomalies are never errors: stages log them as
// warnings and continue. The types below are reserved for whole-document
// failures that abort a run without producing output.
package errs

import (
	"errors"
	"fmt"
	"os"
)

// Kind is a coarse failure category used in reports and logs.
type Kind string

const (
	KindNone             Kind = ""
	KindFormat           Kind = "format"
	KindResourceNotFound Kind = "resource_not_found"
	KindExtraction       Kind = "extraction"
	KindFontLoad         Kind = "font_load"
	KindPersistence      Kind = "persistence"
	KindUnknown          Kind = "unknown"
)

// FormatError reports an input with an unexpected shape (missing columns,
// unsupported file type, unparseable document).
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("format error in %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// ResourceNotFoundError reports a missing or unreadable input file.
type ResourceNotFoundError struct {
	Path string
	Err  error
}

func (e *ResourceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("resource not found: %s", e.Path)
}

func (e *ResourceNotFoundError) Unwrap() error { return e.Err }

// ExtractionError reports that no key could be matched between the
// manifest side and the sticker document.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction error: " + e.Reason
}

// FontLoadError reports that the annotation font could not be loaded.
type FontLoadError struct {
	Path string
	Err  error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("failed to load font %s: %v", e.Path, e.Err)
}

func (e *FontLoadError) Unwrap() error { return e.Err }

// PersistenceError reports that the output document could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Classify maps an error onto its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		fe  *FormatError
		rnf *ResourceNotFoundError
		ee  *ExtractionError
		fle *FontLoadError
		pe  *PersistenceError
	)
	switch {
	case errors.As(err, &fe):
		return KindFormat
	case errors.As(err, &rnf):
		return KindResourceNotFound
	case errors.As(err, &ee):
		return KindExtraction
	case errors.As(err, &fle):
		return KindFontLoad
	case errors.As(err, &pe):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// CheckReadable returns a ResourceNotFoundError unless path names a readable
// regular file.
func CheckReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ResourceNotFoundError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &ResourceNotFoundError{Path: path, Err: errors.New("is a directory")}
	}
	f, err := os.Open(path)
	if err != nil {
		return &ResourceNotFoundError{Path: path, Err: err}
	}
	return f.Close()
}
