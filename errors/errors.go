// Package errors provides error types and utilities shared across the
// boardgameborrow metadata core.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeUpstream represents errors reported by the metadata API
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeStorage represents durable-store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeParse represents malformed-response errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeOperation represents operation-specific errors
	ErrorTypeOperation ErrorType = "operation"
)

// Common error values
var (
	// ErrNotFound means the upstream API has no record for the requested id.
	ErrNotFound = errors.New("game not found")

	// ErrRateLimited means the upstream API signaled throttling (HTTP 429).
	ErrRateLimited = errors.New("rate limited by upstream API")

	// ErrServiceUnavailable means the upstream API returned a 5xx response.
	ErrServiceUnavailable = errors.New("upstream API unavailable")

	// ErrParse means an upstream response could not be decoded.
	ErrParse = errors.New("malformed upstream response")

	// ErrSearch is the generic upstream failure when no more specific
	// classification applies, such as an unexpected HTTP status.
	ErrSearch = errors.New("search failed")

	// ErrStorage means a durable-store read or write failed.
	ErrStorage = errors.New("store operation failed")

	// ErrInvalidCategory means a category outside the supported set was requested.
	ErrInvalidCategory = errors.New("unsupported category")
)

// Error wraps an underlying error with the operation and key it occurred on.
type Error struct {
	Op      string
	Key     string
	Err     error
	ErrType ErrorType
}

func classify(err error) ErrorType {
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServiceUnavailable):
		return ErrorTypeUpstream
	case errors.Is(err, ErrStorage):
		return ErrorTypeStorage
	case errors.Is(err, ErrParse):
		return ErrorTypeParse
	default:
		return ErrorTypeOperation
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: key=%s: %v", e.ErrType, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.ErrType, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap wraps err with operation and key context. Returns nil if err is nil.
func Wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		ErrType: classify(err),
		Op:      op,
		Key:     key,
		Err:     err,
	}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited reports whether err is a rate-limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsServiceUnavailable reports whether err is an upstream 5xx error.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsSearch reports whether err is a generic upstream failure.
func IsSearch(err error) bool {
	return errors.Is(err, ErrSearch)
}

// IsParse reports whether err is a malformed-response error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsStorage reports whether err is a durable-store error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsRetryable reports whether err is worth retrying after a backoff.
// Rate limiting and upstream unavailability are transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServiceUnavailable)
}
