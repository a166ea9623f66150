package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrServiceUnavailable is the oracle's simulated transient upstream failure.
// It is persisted as an Unknown check and surfaced as a server error.
var ErrServiceUnavailable = errors.New("insurance API temporarily unavailable")

// ErrPatientNotFound is returned by history reads for an unknown patient.
var ErrPatientNotFound = errors.New("patient not found")

// ErrCheckNotFound is returned when a patient has no stored checks.
var ErrCheckNotFound = errors.New("eligibility check not found")

// ValidationError reports request fields that were missing or empty.
// Validation failures short-circuit the pipeline before any persistence.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// StoreError wraps a persistence failure. When it occurs while persisting a
// successful determination, it takes precedence in the response: the caller
// cannot trust an unstored result.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
