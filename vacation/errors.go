/*
errors.go - Centralized error types for the vacation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - field-scoped, block the save entirely
  2. Summary errors    - upsert of the derived cache failed after a save
  3. Dispatch errors   - notification fan-out failed after a save
  4. Not-found errors  - store lookups

PROPAGATION POLICY:
  Validation errors mean the range was never persisted. Summary and
  dispatch errors occur strictly after a successful save and never
  retroactively invalidate it; they are operational failures for
  logging/alerting, not user-facing form errors.

SEE ALSO:
  - service.go: Where the policy above is enforced
  - summary.go, dispatch.go: Producers of the post-save errors
*/
package vacation

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every field-scoped validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrSummaryPersistence is returned when the derived summary row
	// cannot be upserted after a successful range save.
	ErrSummaryPersistence = errors.New("summary persistence failed")

	// ErrNotificationDispatch is returned when the notification batch
	// for a range mutation could not be emitted. The batch is all-or-
	// nothing: no partial set was delivered.
	ErrNotificationDispatch = errors.New("notification dispatch failed")

	// ErrRangeNotFound is returned when a referenced range doesn't exist.
	ErrRangeNotFound = errors.New("vacation range not found")

	// ErrStatusNotFound is returned when a referenced status doesn't exist.
	ErrStatusNotFound = errors.New("vacation status not found")
)

// =============================================================================
// FIELD ERRORS - Validation failures scoped to a single attribute
// =============================================================================

// Field error codes. The codes are stable identifiers the UI layer can
// translate; messages are for logs.
const (
	CodeRequired   = "required"
	CodeTaken      = "taken"
	CodeInvalid    = "invalid"
	CodeNotANumber = "not_a_number"
)

// FieldError is a validation failure attached to one field.
type FieldError struct {
	Field string
	Code  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s is %s", e.Field, e.Code)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// ValidationErrors collects every field error found in one pass, so the
// caller can present them per-field instead of one at a time.
type ValidationErrors []*FieldError

func (ve ValidationErrors) Error() string {
	parts := make([]string, len(ve))
	for i, fe := range ve {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve ValidationErrors) Unwrap() error { return ErrValidation }

// On returns the error attached to the given field, or nil.
func (ve ValidationErrors) On(field string) *FieldError {
	for _, fe := range ve {
		if fe.Field == field {
			return fe
		}
	}
	return nil
}

// =============================================================================
// POST-SAVE ERRORS - Carry context about the failed step
// =============================================================================

// SummaryError reports a failed summary upsert for a user.
type SummaryError struct {
	UserID UserID
	Err    error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summary recompute for user %d: %v", e.UserID, e.Err)
}

func (e *SummaryError) Unwrap() error { return ErrSummaryPersistence }

// DispatchError reports a failed notification batch for a range.
type DispatchError struct {
	RangeID RangeID
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notification dispatch for range %d: %v", e.RangeID, e.Err)
}

func (e *DispatchError) Unwrap() error { return ErrNotificationDispatch }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input and
// the caller can recover by re-prompting.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRangeNotFound) ||
		errors.Is(err, ErrStatusNotFound)
}

// IsPostSaveError returns true if the triggering save itself succeeded
// and only a post-processing step failed.
func IsPostSaveError(err error) bool {
	return errors.Is(err, ErrSummaryPersistence) ||
		errors.Is(err, ErrNotificationDispatch)
}
