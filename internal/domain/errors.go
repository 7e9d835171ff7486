package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing aggregate or child entity.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. The aggregate is left unmodified;
// validation always completes before any field is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TransitionError reports an operation requested while the aggregate is not
// in a state that permits it. It names the current state and the attempted
// operation so the caller can decide whether to retry, surface or discard.
type TransitionError struct {
	Aggregate string
	Current   string
	Attempted string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s in status %q does not permit %s", e.Aggregate, e.Current, e.Attempted)
}

// InvalidTransition builds a TransitionError.
func InvalidTransition(aggregate, current, attempted string) error {
	return &TransitionError{Aggregate: aggregate, Current: current, Attempted: attempted}
}

// IsValidation reports whether err is an invalid-argument error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransition reports whether err is an invalid-state-transition error.
func IsTransition(err error) bool {
	var t *TransitionError
	return errors.As(err, &t)
}
