package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// visibleSlots убирает слоты, которые на сегодня уже начались
// Для будущих дат слоты возвращаются без изменений
func visibleSlots(slots []domain.TimeSlot, date, now time.Time) []Slot {
	result := make([]Slot, 0, len(slots))
	today := domain.SameDay(date, now)
	current := types.NewTimeString(now)

	for _, s := range slots {
		if today && !current.IsBefore(s.StartTime) {
			continue
		}
		result = append(result, Slot{
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			IsAvailable: s.IsAvailable,
		})
	}

	return result
}
