/*
errors.go - Centralized error types for the engine

PURPOSE:
  All fatal error types in one place. The engine has exactly two failure
  tiers: fatal errors abort the whole run and are returned from Run();
  everything else is recoverable and surfaces as a structured LogEntry in
  the Result, never as an error.

FATAL CONDITIONS:
  - Missing base-mapping essentials (file, agent/amount/txn-id/date columns)
  - Base data file absent from the dataset
  - Transaction-id column absent from the first row of the base file
  - Unparseable effective-from or as-of date

USAGE:
  Callers can classify with errors.Is / errors.As:

    if errors.Is(err, engine.ErrBaseFileMissing) { ... }

    var verr *engine.SchemeValidationError
    if errors.As(err, &verr) { log.Printf("bad scheme: %s", verr.Field) }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidScheme is the root of every scheme validation failure.
	ErrInvalidScheme = errors.New("invalid scheme configuration")

	// ErrBaseFileMissing is returned when the scheme's base data file is
	// not present in the dataset.
	ErrBaseFileMissing = errors.New("base data file missing from dataset")

	// ErrTxnIDColumnMissing is returned when the configured transaction-id
	// column is absent from the first row of the base file.
	ErrTxnIDColumnMissing = errors.New("transaction id column missing from base data")

	// ErrInvalidAsOfDate is returned when the run's as-of date cannot be
	// parsed as a calendar date.
	ErrInvalidAsOfDate = errors.New("invalid as-of date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SchemeValidationError names the missing or invalid configuration field.
type SchemeValidationError struct {
	Field string
}

func (e *SchemeValidationError) Error() string {
	return fmt.Sprintf("invalid scheme configuration: missing %s", e.Field)
}

func (e *SchemeValidationError) Unwrap() error { return ErrInvalidScheme }

// DatasetError names the dataset artifact a run could not start without.
type DatasetError struct {
	File   string
	Column string
	Cause  error
}

func (e *DatasetError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("dataset file %q: column %q: %v", e.File, e.Column, e.Cause)
	}
	return fmt.Sprintf("dataset file %q: %v", e.File, e.Cause)
}

func (e *DatasetError) Unwrap() error { return e.Cause }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError reports whether the failure is attributable to the caller's
// scheme or as-of date rather than the dataset.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidScheme) || errors.Is(err, ErrInvalidAsOfDate)
}
