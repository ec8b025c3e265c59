package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs an identity and none was supplied.
	ErrNotAuthenticated = errors.New("application: not authenticated")
	// ErrPermissionDenied is returned when the principal's role or ownership does not allow the operation.
	ErrPermissionDenied = errors.New("application: permission denied")
	// ErrNotFound is returned when the referenced reservation, room or user does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a requested slot is already booked.
	ErrConflict = errors.New("application: slot already booked")
	// ErrInactiveUser is returned when a deactivated profile tries to act.
	ErrInactiveUser = errors.New("application: user inactive")
	// ErrInvalidToken is returned when a bearer token cannot be verified.
	ErrInvalidToken = errors.New("application: invalid token")
	// ErrReservationEnded is returned when cancelling a reservation whose block has already ended.
	ErrReservationEnded = errors.New("application: reservation already ended")
	// ErrCheckinWindowClosed is returned outside the check-in window of a reservation.
	ErrCheckinWindowClosed = errors.New("application: check-in window closed")
	// ErrAlreadyCheckedIn is returned when a reservation was already checked in.
	ErrAlreadyCheckedIn = errors.New("application: already checked in")
	// ErrCodeInvalid is returned when a check-in code does not match.
	ErrCodeInvalid = errors.New("application: invalid check-in code")
	// ErrCodeExpired is returned when a check-in code is past its expiry.
	ErrCodeExpired = errors.New("application: check-in code expired")
	// ErrCodeUsed is returned when a check-in code was already redeemed.
	ErrCodeUsed = errors.New("application: check-in code already used")

	// ErrPartialFailure is matched by *PartialFailureError.
	ErrPartialFailure = errors.New("application: partial failure")
	// ErrUpstream is matched by *UpstreamError.
	ErrUpstream = errors.New("application: upstream failure")
)

// PartialFailureError reports a multi-record operation where only some of
// the independent calls succeeded.
type PartialFailureError struct {
	Succeeded int
	Failed    int
	Errs      []error
}

// Error implements the error interface.
func (e *PartialFailureError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("application: %d of %d operations failed", e.Failed, e.Succeeded+e.Failed)
}

// Is reports ErrPartialFailure as a match.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

// Unwrap exposes the individual failures.
func (e *PartialFailureError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.Errs
}

// UpstreamError wraps a failure of the reservation store itself.
type UpstreamError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("application: %s: %v", e.Op, e.Err)
}

// Is reports ErrUpstream as a match.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Unwrap returns the underlying store error.
func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d field(s)", len(v.FieldErrors))
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
