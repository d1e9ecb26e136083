package availability

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Reason причина, по которой слот недоступен
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonCrossesMidnight Reason = "crosses_midnight"
	ReasonOutsideHours    Reason = "outside_working_hours"
	ReasonBlocked         Reason = "blocked"
	ReasonBooked          Reason = "booked"
)

// Filter проставляет IsAvailable для каждого кандидата
//
// Слот доступен, если одновременно:
//  1. slotEnd не позже schedule.EndTime (рабочие часы)
//  2. [start, slotEnd) не пересекается с заблокированными интервалами на date
//  3. [start, slotEnd) не пересекается ни с одной неотмененной записью на date
//
// Слоты, окно которых выходит за полночь, исключаются из результата.
// Порядок сохраняется (хронологический, если кандидаты получены из Generate).
func Filter(
	candidates []types.TimeString,
	durationMinutes int,
	date time.Time,
	schedule *domain.ProviderSchedule,
	appointments []*domain.Appointment,
) []domain.TimeSlot {
	result := make([]domain.TimeSlot, 0, len(candidates))
	if schedule == nil || durationMinutes <= 0 {
		return result
	}

	blocked := schedule.BlockedOn(date)
	var sourceID *int64
	if schedule.ID != 0 {
		id := schedule.ID
		sourceID = &id
	}

	for _, start := range candidates {
		reason := evaluate(start, durationMinutes, date, schedule, blocked, appointments)
		if reason == ReasonCrossesMidnight {
			continue
		}

		result = append(result, domain.TimeSlot{
			StartTime:            start,
			EndTime:              start.AddMinutes(durationMinutes),
			IsAvailable:          reason == ReasonNone,
			SourceAvailabilityID: sourceID,
		})
	}

	return result
}

// CheckSlot повторно проверяет один слот непосредственно перед записью
// Возвращает domain.ErrScheduleViolation, если слот не соответствует расписанию,
// и domain.ErrSlotConflict, если окно занято другой записью
func CheckSlot(
	start types.TimeString,
	durationMinutes int,
	date time.Time,
	schedule *domain.ProviderSchedule,
	appointments []*domain.Appointment,
) error {
	if schedule == nil {
		return fmt.Errorf("%w: provider has no schedule", domain.ErrScheduleViolation)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: service duration must be positive", domain.ErrScheduleViolation)
	}
	if !schedule.IsWorkingDay(date) {
		return fmt.Errorf("%w: %s is not a working day", domain.ErrScheduleViolation, date.Weekday())
	}
	if schedule.SlotIntervalMinutes <= 0 || !onGrid(schedule, start) {
		return fmt.Errorf("%w: %s is not on the slot grid", domain.ErrScheduleViolation, start)
	}

	switch reason := evaluate(start, durationMinutes, date, schedule, schedule.BlockedOn(date), appointments); reason {
	case ReasonNone:
		return nil
	case ReasonBooked:
		return fmt.Errorf("%w: %s+%dm overlaps an existing appointment", domain.ErrSlotConflict, start, durationMinutes)
	default:
		return fmt.Errorf("%w: %s+%dm is %s", domain.ErrScheduleViolation, start, durationMinutes, reason)
	}
}

func evaluate(
	start types.TimeString,
	durationMinutes int,
	date time.Time,
	schedule *domain.ProviderSchedule,
	blocked []domain.BlockedRange,
	appointments []*domain.Appointment,
) Reason {
	if start.CrossesMidnight(durationMinutes) {
		return ReasonCrossesMidnight
	}

	end := start.AddMinutes(durationMinutes)

	if start.IsBefore(schedule.StartTime) || end.IsAfter(schedule.EndTime) {
		return ReasonOutsideHours
	}

	for _, br := range blocked {
		if br.Overlaps(start, end) {
			return ReasonBlocked
		}
	}

	for _, a := range appointments {
		if a == nil || !a.IsActive() || !domain.SameDay(a.Date, date) {
			continue
		}
		if a.Overlaps(start, end) {
			return ReasonBooked
		}
	}

	return ReasonNone
}
