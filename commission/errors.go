/*
errors.go - Error types for the commission engine

ERROR CATEGORIES:
  1. Configuration outcomes - NOT errors. Missing settings, empty rule sets
     and unmatched sales come back as a Resolution with OutcomeNoRule so the
     caller can fall back to manual entry.
  2. Validation errors - malformed queries or inputs (client error)
  3. Store errors - repository failures, propagated with %w wrapping

USAGE:
  if errors.Is(err, commission.ErrSettingNotFound) { ... }
  var verr *commission.ValidationError
  if errors.As(err, &verr) { ... }
*/
package commission

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSettingNotFound is returned by stores when a setting id does not exist.
	ErrSettingNotFound = errors.New("commission setting not found")

	// ErrRuleNotFound is returned by stores when a rule id does not exist.
	ErrRuleNotFound = errors.New("commission rule not found")

	// ErrSaleNotFound is returned by stores when a sale id does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrInvalidInput wraps every ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRunInProgress is returned when a recalculation is already running.
	ErrRunInProgress = errors.New("recalculation already in progress")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StoreError records which repository call failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSettingNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrSaleNotFound)
}

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
