package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when a ledger lookup matches nothing
	ErrEntryNotFound = errors.New("ledger entry not found")
)

// ValidationError reports a caller-supplied value that failed an input
// invariant. It always names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for field with reason
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NoSavingsError signals a confirmation where the actual spend met or
// exceeded the original estimate, so there is nothing to record
type NoSavingsError struct {
	OriginalAmount float64
	ActualAmount   float64
}

func (e *NoSavingsError) Error() string {
	return fmt.Sprintf("no savings to record: actual %.2f >= original %.2f",
		e.ActualAmount, e.OriginalAmount)
}

// IsNoSavings reports whether err is (or wraps) a NoSavingsError
func IsNoSavings(err error) bool {
	var nse *NoSavingsError
	return errors.As(err, &nse)
}

// DuplicateRuleError signals a second registration under an already-taken
// rule id
type DuplicateRuleError struct {
	ID string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is already registered", e.ID)
}
