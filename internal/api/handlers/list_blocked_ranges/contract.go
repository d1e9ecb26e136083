package list_blocked_ranges

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
)

type ScheduleService interface {
	ListBlockedRanges(ctx context.Context, req *models.ListBlockedRangesRequest) (*models.BlockedRangeListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
