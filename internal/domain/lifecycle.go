package domain

import "fmt"

// Event is an input to the appointment state machine
type Event string

const (
	EventPaymentCaptured Event = "payment_captured"
	EventConfirm         Event = "confirm"
	EventStart           Event = "start"
	EventComplete        Event = "complete"
	EventCancel          Event = "cancel"
	EventNoShow          Event = "no_show"
)

// NextStatus returns the status reached by applying event to from
// Terminal statuses reject every event with ErrInvalidStateTransition
func NextStatus(from AppointmentStatus, event Event) (AppointmentStatus, error) {
	switch from {
	case StatusProcessingPayment:
		switch event {
		case EventPaymentCaptured:
			return StatusPending, nil
		case EventCancel:
			return StatusCanceled, nil
		}
	case StatusPending:
		switch event {
		case EventConfirm:
			return StatusConfirmed, nil
		case EventCancel:
			return StatusCanceled, nil
		case EventNoShow:
			return StatusNoShow, nil
		}
	case StatusConfirmed:
		switch event {
		case EventStart:
			return StatusExecuting, nil
		case EventComplete:
			return StatusCompleted, nil
		case EventCancel:
			return StatusCanceled, nil
		case EventNoShow:
			return StatusNoShow, nil
		}
	case StatusExecuting:
		if event == EventComplete {
			return StatusCompleted, nil
		}
	case StatusCompleted, StatusCanceled, StatusNoShow:
		return from, fmt.Errorf("%w: %s is terminal, cannot %s", ErrInvalidStateTransition, from, event)
	default:
		return from, fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}

	return from, fmt.Errorf("%w: cannot %s from %s", ErrInvalidStateTransition, event, from)
}

// Apply moves the appointment to the status reached by event
// Completion must go through Complete, which checks the validation code
func (a *Appointment) Apply(event Event) error {
	if event == EventComplete {
		return fmt.Errorf("%w: completion requires a validation code", ErrInvalidStateTransition)
	}

	next, err := NextStatus(a.Status, event)
	if err != nil {
		return err
	}
	a.Status = next
	return nil
}

// Complete moves a confirmed or executing appointment to completed
// The supplied code must match the stored validation code; on mismatch the status is unchanged
func (a *Appointment) Complete(code string) error {
	next, err := NextStatus(a.Status, EventComplete)
	if err != nil {
		return err
	}

	if a.ValidationCode == nil || !MatchValidationCode(*a.ValidationCode, code) {
		return ErrInvalidValidationCode
	}

	a.Status = next
	return nil
}
