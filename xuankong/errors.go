/*
errors.go - Centralized error types for the Xuankong core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine and host adapters wrap or classify these errors.

ERROR CATEGORIES:
  1. Input errors - bad bearings, periods, mountains, dates (client fault)
  2. Rule lookup errors - incomplete classical tables (programming defect)
  3. Warnings - ambiguous period boundaries (not errors, surfaced in meta)

USAGE:
  if errors.Is(err, xuankong.ErrInvalidInput) {
      // 400 Bad Request
  }

SEE ALSO:
  - engine/engine.go: degrades on non-fatal stage errors
  - api/handlers.go: maps errors to HTTP status codes
*/
package xuankong

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is the root of every client-side validation failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPeriod is returned when a period is outside 1-9.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidMountain is returned for an unknown mountain name.
	ErrInvalidMountain = errors.New("invalid mountain")

	// ErrRuleLookup means a classical table has no entry for a key that
	// must exist. It indicates incomplete tables, never bad user input.
	ErrRuleLookup = errors.New("rule lookup failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InputValidationError describes a rejected request field.
type InputValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InputValidationError) Unwrap() error { return ErrInvalidInput }

// InvalidPeriodError is returned when a plate is requested for a period
// outside 1-9. Periods are never clamped.
type InvalidPeriodError struct {
	Period int
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %d: must be within 1-9", e.Period)
}

func (e *InvalidPeriodError) Is(target error) bool {
	return target == ErrInvalidPeriod || target == ErrInvalidInput
}

// InvalidMountainError is returned for a mountain name missing from the
// 24-mountain ring.
type InvalidMountainError struct {
	Mountain string
}

func (e *InvalidMountainError) Error() string {
	return fmt.Sprintf("invalid mountain %q", e.Mountain)
}

func (e *InvalidMountainError) Is(target error) bool {
	return target == ErrInvalidMountain || target == ErrInvalidInput
}

// RuleLookupError reports a missing classical table entry.
type RuleLookupError struct {
	Table string
	Key   string
}

func (e *RuleLookupError) Error() string {
	return fmt.Sprintf("rule lookup failed: %s has no entry for %s", e.Table, e.Key)
}

func (e *RuleLookupError) Unwrap() error { return ErrRuleLookup }

// =============================================================================
// WARNINGS - Non-fatal conditions surfaced through result metadata
// =============================================================================

// AmbiguousPeriodWarning marks a date or build year near a period boundary.
// The engine still returns the standard-convention period.
type AmbiguousPeriodWarning struct {
	Period   Period `json:"period"`
	Boundary string `json:"boundary"` // date of the boundary, YYYY-MM-DD
	DaysAway int    `json:"days_away"`
	Rule     string `json:"rule"`
}

func (w AmbiguousPeriodWarning) String() string {
	return fmt.Sprintf("period %d is ambiguous: %d days from boundary %s (%s)",
		w.Period, w.DaysAway, w.Boundary, w.Rule)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidMountain)
}

// IsDefect returns true if the error points at incomplete lookup tables.
func IsDefect(err error) bool {
	return errors.Is(err, ErrRuleLookup)
}
