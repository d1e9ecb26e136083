package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	StatusProcessingPayment AppointmentStatus = "processing_payment"
	StatusPending           AppointmentStatus = "pending"
	StatusConfirmed         AppointmentStatus = "confirmed"
	StatusExecuting         AppointmentStatus = "executing"
	StatusCompleted         AppointmentStatus = "completed"
	StatusCanceled          AppointmentStatus = "canceled"
	StatusNoShow            AppointmentStatus = "no_show"
)

// AllStatuses lists every known appointment status
var AllStatuses = []AppointmentStatus{
	StatusProcessingPayment,
	StatusPending,
	StatusConfirmed,
	StatusExecuting,
	StatusCompleted,
	StatusCanceled,
	StatusNoShow,
}

// ParseAppointmentStatus validates a raw status string
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	for _, status := range AllStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", ErrUnknownStatus
}

// IsTerminal returns true for statuses that admit no further transitions
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusNoShow:
		return true
	default:
		return false
	}
}

// BlocksSlot returns true if an appointment in this status occupies its time window
// Only cancellation releases the window
func (s AppointmentStatus) BlocksSlot() bool {
	return s != StatusCanceled
}

// Appointment represents one booked service between a client and a provider
type Appointment struct {
	ID            int64
	ClientID      int64
	ProviderID    int64
	ServiceID     int64
	Date          time.Time // calendar date, time part is ignored
	StartTime     types.TimeString
	EndTime       types.TimeString
	Status        AppointmentStatus
	PaymentStatus PaymentStatus
	TotalPrice    int64 // minor currency units (cents)

	ValidationCode *string
	Notes          *string

	CancellationReason *string
	CanceledAt         *time.Time
	CompletedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the appointment still holds its slot
func (a *Appointment) IsActive() bool {
	return a.Status.BlocksSlot()
}

// DurationMinutes returns the length of the booked window
func (a *Appointment) DurationMinutes() int {
	return a.EndTime.Minutes() - a.StartTime.Minutes()
}

// Overlaps reports whether the appointment's half-open window [start, end) intersects [start, end)
func (a *Appointment) Overlaps(start, end types.TimeString) bool {
	return Overlaps(a.StartTime, a.EndTime, start, end)
}

// IsParticipant returns true if the user is the client or the provider of the appointment
func (a *Appointment) IsParticipant(userID int64) bool {
	return a.ClientID == userID || a.ProviderID == userID
}

// Overlaps checks two half-open intervals [a1,a2) and [b1,b2): a1 < b2 && b1 < a2
// Touching intervals (a2 == b1) do not overlap
func Overlaps(a1, a2, b1, b2 types.TimeString) bool {
	return a1.IsBefore(b2) && b1.IsBefore(a2)
}

// AppointmentFilter describes a listing query over appointments
type AppointmentFilter struct {
	ProviderID *int64
	ClientID   *int64
	Date       *time.Time          // exact calendar date
	Statuses   []AppointmentStatus // empty - any status
	ActiveOnly bool                // exclude canceled appointments
}

// DateOnly strips the clock part of a date, keeping its location
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay returns true if both values fall on the same calendar date
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DayBefore reports whether the calendar date of a precedes the calendar date of b
// Locations are ignored: only year, month and day are compared
func DayBefore(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC))
}
