package domain

import "errors"

var (
	// ErrSlotConflict the requested window overlaps a non-canceled appointment
	ErrSlotConflict = errors.New("slot conflict")

	// ErrInvalidStateTransition the transition is not allowed from the current status
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInvalidValidationCode completion attempted with a wrong or missing code
	ErrInvalidValidationCode = errors.New("invalid validation code")

	// ErrScheduleViolation the window is outside working hours, blocked or off the slot grid
	ErrScheduleViolation = errors.New("schedule violation")

	// ErrPersistenceFailure storage layer error
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrUnknownStatus the status string is not a known appointment status
	ErrUnknownStatus = errors.New("unknown appointment status")

	// ErrUnknownPaymentStatus the processor reported a status that cannot be mapped
	ErrUnknownPaymentStatus = errors.New("unknown payment status")
)
