/*
errors.go - Centralized error types for the point ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - The request violates point policy (user-correctable)
  2. Concurrency errors - Optimistic write conflicts (transient)
  3. Storage errors - Unexpected persistence failures

PROPAGATION:
  Validation failures are detected before any mutation; a failed charge
  or use leaves balance and history untouched. Errors are returned to
  the immediate caller as typed failures, never logged-and-swallowed.

SEE ALSO:
  - policy.go: Produces the validation errors
  - engine.go: Retries ErrConcurrentModification before surfacing it
*/
package point

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a charge/use amount violates the
	// static policy (below minimum charge, or zero/negative use amount).
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientPoints is returned when a use amount exceeds the
	// current balance at validation time.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrConcurrentModification is returned when a compare-and-write
	// detects that the balance changed under it.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrStorage wraps unexpected persistence-layer failures, distinct
	// from the domain errors above.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError provides details about a rejected amount.
type InvalidAmountError struct {
	UserID UserID
	Amount int64
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %d for user %d: %s", e.Amount, e.UserID, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// InsufficientPointsError provides details about a balance shortage.
type InsufficientPointsError struct {
	UserID    UserID
	Available int64
	Requested int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points for user %d: available %d, requested %d",
		e.UserID, e.Available, e.Requested)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
// These map to a 400-class response at the API boundary; no retry helps.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientPoints)
}
