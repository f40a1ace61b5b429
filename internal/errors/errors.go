// Package errors defines the error taxonomy shared by the simulator packages.
// Public packages re-export the sentinels so callers can match them with
// errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-supplied parameters
var (
	// ErrInvalidInput indicates a non-positive qubit count, an out-of-range
	// rate or fraction, or an otherwise unusable argument
	ErrInvalidInput = errors.New("bb84: invalid input")

	// ErrInputMismatch indicates sequences that must be aligned position by
	// position have different lengths
	ErrInputMismatch = fmt.Errorf("%w: sequence length mismatch", ErrInvalidInput)

	// ErrUnknownScenario indicates a scenario tag outside the closed set
	ErrUnknownScenario = fmt.Errorf("%w: unknown scenario", ErrInvalidInput)
)

// LinkError records the failure of a single sender-to-receiver session
type LinkError struct {
	Receiver string // Receiver id of the failed link
	Err      error  // Underlying error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link to %s: %v", e.Receiver, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// NewLinkError creates a new LinkError
func NewLinkError(receiver string, err error) *LinkError {
	return &LinkError{Receiver: receiver, Err: err}
}

// Mismatch returns an ErrInputMismatch wrapped with the offending lengths.
func Mismatch(what string, lens ...int) error {
	return fmt.Errorf("%w: %s lengths %v", ErrInputMismatch, what, lens)
}
