package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the portfolio metrics backend

// ErrInvalidSlug is returned when a slug is empty or not URL-safe.
// It is rejected before any storage access.
var ErrInvalidSlug = errors.New("invalid slug")

// ErrStorageUnavailable is returned when the durable store could not be reached,
// timed out, or failed unexpectedly. Callers must never retry it blindly.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInvalidMessage is returned when a contact form submission fails validation
var ErrInvalidMessage = errors.New("invalid contact message")

// ErrRateLimited is returned when a visitor exceeds the contact form throttle
var ErrRateLimited = errors.New("too many requests")

// ErrInvalidConfig is returned when the loaded configuration cannot be used
var ErrInvalidConfig = errors.New("invalid configuration")

// StorageError carries the failing operation for logs. It matches
// ErrStorageUnavailable with errors.Is; the cause stays server-side.
type StorageError struct {
	Op   string
	Slug string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: storage unavailable: %v", e.Op, e.Slug, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// ErrAggregateDrift is reported by the consistency audit when an aggregate
// row no longer matches its interaction log.
type ErrAggregateDrift struct {
	Slug          string
	Kind          string
	AggregateSays int64
	LogSays       int64
}

func (e ErrAggregateDrift) Error() string {
	return fmt.Sprintf("aggregate drift on %s/%s: aggregate=%d log=%d", e.Slug, e.Kind, e.AggregateSays, e.LogSays)
}
