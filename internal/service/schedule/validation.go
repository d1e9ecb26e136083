package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// validateSchedule проверяет запрос и собирает domain модель расписания
func validateSchedule(req *models.UpsertScheduleRequest) (*domain.ProviderSchedule, error) {
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if req.SlotIntervalMinutes < domain.MinSlotIntervalMinutes || req.SlotIntervalMinutes > domain.MaxSlotIntervalMinutes {
		return nil, fmt.Errorf("%w: slotIntervalMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinSlotIntervalMinutes, domain.MaxSlotIntervalMinutes)
	}

	if len(req.WorkingDays) == 0 {
		return nil, fmt.Errorf("%w: workingDays must not be empty", ErrInvalidInput)
	}
	seen := make(map[int]struct{}, len(req.WorkingDays))
	for _, d := range req.WorkingDays {
		if d < domain.MinWeekday || d > domain.MaxWeekday {
			return nil, fmt.Errorf("%w: working day %d is out of range %d..%d",
				ErrInvalidInput, d, domain.MinWeekday, domain.MaxWeekday)
		}
		if _, ok := seen[d]; ok {
			return nil, fmt.Errorf("%w: working day %d is duplicated", ErrInvalidInput, d)
		}
		seen[d] = struct{}{}
	}

	workingDays := make([]int, len(req.WorkingDays))
	copy(workingDays, req.WorkingDays)

	return &domain.ProviderSchedule{
		ProviderID:          req.ProviderID,
		StartTime:           start,
		EndTime:             end,
		WorkingDays:         workingDays,
		SlotIntervalMinutes: req.SlotIntervalMinutes,
	}, nil
}

// validateBlockedRange проверяет запрос и собирает domain модель интервала
func validateBlockedRange(req *models.AddBlockedRangeRequest) (*domain.BlockedRange, error) {
	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be in format YYYY-MM-DD", ErrInvalidInput)
	}

	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	var reason *string
	if req.Reason != nil {
		trimmed := strings.TrimSpace(*req.Reason)
		if len(trimmed) > domain.MaxReasonLength {
			return nil, fmt.Errorf("%w: reason is longer than %d characters", ErrInvalidInput, domain.MaxReasonLength)
		}
		if trimmed != "" {
			reason = &trimmed
		}
	}

	return &domain.BlockedRange{
		ProviderID: req.ProviderID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Reason:     reason,
	}, nil
}

// parseWindow разбирает пару "HH:MM" и проверяет start < end
func parseWindow(rawStart, rawEnd string) (types.TimeString, types.TimeString, error) {
	start, err := types.NewTimeStringFromString(rawStart)
	if err != nil {
		return "", "", fmt.Errorf("%w: startTime must be in format HH:MM", ErrInvalidInput)
	}
	end, err := types.NewTimeStringFromString(rawEnd)
	if err != nil {
		return "", "", fmt.Errorf("%w: endTime must be in format HH:MM", ErrInvalidInput)
	}
	if !start.IsBefore(end) {
		return "", "", fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}
	return start, end, nil
}
