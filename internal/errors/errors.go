// Package errors carries the structured error type shared across the
// analysis pipeline. Every failure category maps onto the reportable
// model.ErrorKind taxonomy so per-file failures surface in the final
// aggregate instead of aborting the run.
package errors

import (
	"fmt"

	"github.com/codescribe/codescribe-go/internal/model"
)

// Type categorizes an error.
type Type int

const (
	// TypeParse - a file unreadable as its declared language
	TypeParse Type = iota
	// TypeService - the external analysis service failed
	TypeService
	// TypeCache - the persisted cache is unreadable
	TypeCache
	// TypeCancelled - the run was aborted
	TypeCancelled
	// TypeConfig - missing or invalid configuration
	TypeConfig
	// TypeFileSystem - file I/O failure
	TypeFileSystem
	// TypeInternal - unexpected internal state
	TypeInternal
)

// Error is a structured error with a category and optional key/value context.
type Error struct {
	Type    Type
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches on category so callers can test errors.Is(err, &Error{Type: X}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext attaches a key/value pair and returns the error for chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Kind maps the error onto the taxonomy reported in AnalysisResult.
func (e *Error) Kind() model.ErrorKind {
	switch e.Type {
	case TypeParse:
		return model.ErrorParse
	case TypeService:
		return model.ErrorServiceUnavailable
	case TypeCancelled:
		return model.ErrorCancelled
	case TypeCache:
		return model.ErrorCacheCorrupt
	default:
		return model.ErrorServiceUnavailable
	}
}

// New creates an error with the given category.
func New(t Type, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap wraps an existing error; returns nil when err is nil.
func Wrap(err error, t Type, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Message: message, Cause: err}
}

// Convenience constructors for the common categories.

func ParseError(err error, path string) *Error {
	return Wrap(err, TypeParse, "parse failed").WithContext("path", path)
}

func ParseErrorf(format string, args ...interface{}) *Error {
	return New(TypeParse, fmt.Sprintf(format, args...))
}

func ServiceError(err error, message string) *Error {
	return Wrap(err, TypeService, message)
}

func CacheError(err error, message string) *Error {
	return Wrap(err, TypeCache, message)
}

func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(TypeConfig, fmt.Sprintf(format, args...))
}

func FileSystemError(err error, message string) *Error {
	return Wrap(err, TypeFileSystem, message)
}

// KindOf extracts the reportable kind of any error; plain errors fall back
// to service_unavailable since only classified failures reach the report.
func KindOf(err error) model.ErrorKind {
	if err == nil {
		return model.ErrorNone
	}
	if e, ok := err.(*Error); ok {
		return e.Kind()
	}
	return model.ErrorServiceUnavailable
}
