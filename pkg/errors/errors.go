// Package errors provides common domain error types for the revload pipeline.
//
// This package defines sentinel errors for common conditions like "not found"
// or "record rejected" that can be used across all packages. Using typed
// errors enables consistent error handling patterns with errors.Is() checks.
//
// Usage:
//
//	import rverrors "github.com/fintech-reviews/revload/pkg/errors"
//
//	// Return a domain error
//	return nil, rverrors.ErrNotFound
//
//	// Check for domain errors
//	if rverrors.IsRejected(err) {
//	    // count the rejection and move on
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for pipeline conditions.
var (
	// ErrNotFound indicates the requested row was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrRejected indicates a record failed normalization and never reached
	// the database (missing review text or bank name).
	ErrRejected = errors.New("record rejected")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrNoInput indicates no input file could be located.
	ErrNoInput = errors.New("no input data file found")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRejected reports whether any error in err's chain is ErrRejected.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
