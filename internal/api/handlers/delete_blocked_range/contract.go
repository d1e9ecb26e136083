package delete_blocked_range

import "context"

type ScheduleService interface {
	RemoveBlockedRange(ctx context.Context, providerID, rangeID, userID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
