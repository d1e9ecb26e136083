// Package availability computes bookable time slots for a provider's day.
// Everything here is pure: no I/O, no clock, safe for concurrent use.
package availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Generate возвращает кандидаты на время начала слотов на указанную дату
// Слоты начинаются с schedule.StartTime с шагом SlotIntervalMinutes.
// Последний слот - самое позднее t, для которого t + durationMinutes <= schedule.EndTime.
// Если день недели не рабочий - возвращается пустой список.
// durationMinutes <= 0 означает "длительность равна шагу сетки".
func Generate(schedule *domain.ProviderSchedule, date time.Time, durationMinutes int) []types.TimeString {
	slots := make([]types.TimeString, 0)

	if schedule == nil || schedule.SlotIntervalMinutes <= 0 {
		return slots
	}
	if !schedule.IsWorkingDay(date) {
		return slots
	}

	if durationMinutes <= 0 {
		durationMinutes = schedule.SlotIntervalMinutes
	}

	// Считаем в минутах от начала суток, чтобы не было перехода через полночь
	openMinutes := schedule.StartTime.Minutes()
	closeMinutes := schedule.EndTime.Minutes()

	for start := openMinutes; start+durationMinutes <= closeMinutes; start += schedule.SlotIntervalMinutes {
		slots = append(slots, types.FromMinutes(start))
	}

	return slots
}

// onGrid проверяет, что start попадает на сетку слотов расписания
func onGrid(schedule *domain.ProviderSchedule, start types.TimeString) bool {
	offset := start.Minutes() - schedule.StartTime.Minutes()
	return offset >= 0 && offset%schedule.SlotIntervalMinutes == 0
}
