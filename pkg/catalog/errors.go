package catalog

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed request, such as a missing
// identifying field. It is surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q %s", e.Field, e.Reason)
}

// AuthorizationError reports that the permission evaluator denied the
// action. Kept distinct from "not found".
type AuthorizationError struct {
	UserID string
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Action)
}

// NotFoundError reports that a referenced version is absent from the
// record store.
type NotFoundError struct {
	InstanceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity instance %s not found", e.InstanceID)
}

// InvalidTransitionError reports a lifecycle transition with no matching
// rule, carrying the offending (current, requested) pair.
type InvalidTransitionError struct {
	Current   Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	switch {
	case e.Current.Terminal():
		return fmt.Sprintf("entity is %s and read-only; cannot transition to %s", e.Current, e.Requested)
	case e.Requested == StatusArchived:
		return "cannot write an ARCHIVED entity directly; ARCHIVED is only reached by publishing a newer version"
	default:
		return fmt.Sprintf("invalid status transition from %s to %s", e.Current, e.Requested)
	}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}
