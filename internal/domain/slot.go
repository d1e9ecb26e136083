package domain

import "github.com/m04kA/SMC-SchedulingService/pkg/types"

// TimeSlot is a computed candidate window; never persisted
// Invariant: EndTime == StartTime + service duration and StartTime < EndTime
type TimeSlot struct {
	StartTime            types.TimeString
	EndTime              types.TimeString
	IsAvailable          bool
	SourceAvailabilityID *int64 // schedule the slot was generated from
}
