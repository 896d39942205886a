/*
errors.go - Centralized error types for the records engine

PURPOSE:
  All error categories in one place for consistency and discoverability.
  Other packages wrap these sentinels with additional context.

ERROR CATEGORIES:
  1. Validation errors - missing or empty required fields, empty bulk loads
  2. Not-found errors  - operations targeting nonexistent records
  3. Attachment errors - media type and size constraints
  4. Store errors      - database-level failures (trigger rollback)

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, records.ErrNotFound) {
        // 404
    }
*/
package records

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a required field is missing or empty,
	// or when a replace-semantics bulk load has zero valid rows.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation targets a nonexistent id
	// or a selective filter matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrUnsupportedMedia is returned when an attachment has a disallowed
	// content type.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrPayloadTooLarge is returned when an attachment exceeds the size limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrStore is returned on an underlying transactional failure. The
	// transaction is rolled back before this surfaces.
	ErrStore = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the field (or condition) that failed validation.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError with a formatted detail.
func Validationf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies the collection and lookup that found nothing.
type NotFoundError struct {
	Collection Collection
	Detail     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Collection, e.Detail)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StoreError wraps a database failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return ErrStore }

// Storef wraps err as a StoreError for operation op.
func Storef(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
