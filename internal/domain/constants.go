package domain

// Schedule validation limits
const (
	MinSlotIntervalMinutes = 5
	MaxSlotIntervalMinutes = 480 // 8 hours
	MinWeekday             = 0   // Sunday
	MaxWeekday             = 6   // Saturday
	MaxNotesLength         = 500
	MaxReasonLength        = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
