/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context; the HTTP
  layer maps them to status codes with the helpers at the bottom.

ERROR CATEGORIES:
  1. Validation errors - Bad account input, overlapping employment
  2. Lookup errors - Missing accounts
  3. Store errors - Database-level failures (wrapped, never sentinel)

USAGE:
  if errors.Is(err, generic.ErrAccountNotFound) {
      // 404
  }

SEE ALSO:
  - epf/validate.go: Produces ValidationError
  - api/handlers.go: Maps errors to HTTP status
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a referenced account doesn't exist
	// or belongs to another user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned when an account ID is already taken.
	ErrDuplicateAccount = errors.New("duplicate account id")

	// ErrInvalidAccount is returned when account fields break a business rule.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrOverlappingEmployment is returned when an explicit end date runs
	// past the start of the next employment.
	ErrOverlappingEmployment = errors.New("overlapping employment")

	// ErrInvalidRate is returned when an interest rate is negative or malformed.
	ErrInvalidRate = errors.New("invalid interest rate")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every rejected field of one account.
type ValidationError struct {
	AccountID AccountID
	Fields    []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	if e.AccountID != "" {
		return fmt.Sprintf("invalid account %s: %s", e.AccountID, strings.Join(parts, "; "))
	}
	return "invalid account: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAccount
}

// Add records a rejected field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when nothing was rejected.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// OverlapError names the two employments whose windows intersect.
type OverlapError struct {
	First     string
	Second    string
	EndDate   TimePoint
	NextStart TimePoint
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s ends %s, after %s starts %s", e.First, e.EndDate, e.Second, e.NextStart)
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlappingEmployment
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAccount) ||
		errors.Is(err, ErrOverlappingEmployment) ||
		errors.Is(err, ErrInvalidRate)
}

// IsConflict returns true if the write collides with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAccount)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
