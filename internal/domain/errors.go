package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the store and query layers.
var (
	// ErrCatalogUnavailable signals that the underlying store could not be
	// read. Callers must show a retryable failure state, never an empty
	// result.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrConflictExhausted signals that a transaction was retried to its
	// attempt limit without committing.
	ErrConflictExhausted = errors.New("transaction conflict retries exhausted")

	// ErrSearchSuperseded signals that a newer search started while this
	// one was running; the stale result must be discarded.
	ErrSearchSuperseded = errors.New("search superseded by a newer one")

	// ErrNotFound signals that the referenced document does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects malformed input locally, before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// DecodeError is returned when a store document cannot be decoded into its
// typed schema. Decoding fails closed: a malformed document is an error,
// never a zero-valued entry.
type DecodeError struct {
	Collection string
	DocID      string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s/%s: %v", e.Collection, e.DocID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
