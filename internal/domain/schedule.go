package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ProviderSchedule is the provider's weekly working-hours template
type ProviderSchedule struct {
	ID                  int64
	ProviderID          int64
	StartTime           types.TimeString
	EndTime             types.TimeString
	WorkingDays         []int // weekday numbers, 0 = Sunday ... 6 = Saturday
	SlotIntervalMinutes int
	BlockedRanges       []BlockedRange

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWorkingDay returns true if the date's weekday is one of the working days
func (s *ProviderSchedule) IsWorkingDay(date time.Time) bool {
	weekday := int(date.Weekday())
	for _, d := range s.WorkingDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// BlockedOn returns the blocked ranges that apply to the given date
func (s *ProviderSchedule) BlockedOn(date time.Time) []BlockedRange {
	result := make([]BlockedRange, 0)
	for _, br := range s.BlockedRanges {
		if SameDay(br.Date, date) {
			result = append(result, br)
		}
	}
	return result
}

// BlockedRange is a date-scoped window during which the provider takes no bookings
type BlockedRange struct {
	ID         int64
	ProviderID int64
	Date       time.Time
	StartTime  types.TimeString
	EndTime    types.TimeString
	Reason     *string
	CreatedAt  time.Time
}

// Overlaps reports whether [start, end) intersects the blocked window
func (b BlockedRange) Overlaps(start, end types.TimeString) bool {
	return Overlaps(b.StartTime, b.EndTime, start, end)
}
