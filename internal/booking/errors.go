package booking

import "errors"

var (
	// ErrInvalidDate indicates a calendar date could not be parsed.
	ErrInvalidDate = errors.New("booking: invalid date")
	// ErrInvalidClock indicates a time of day is not a valid HH:MM value.
	ErrInvalidClock = errors.New("booking: invalid time of day")
	// ErrInvalidBlock indicates a time block does not end after it starts.
	ErrInvalidBlock = errors.New("booking: time block must end after it starts")
	// ErrInvalidGrid indicates the slot grid parameters cannot produce equal, ordered slots.
	ErrInvalidGrid = errors.New("booking: invalid slot grid")
	// ErrInvalidRecurrence indicates a recurrence rule cannot be expanded.
	ErrInvalidRecurrence = errors.New("booking: invalid recurrence rule")
)
