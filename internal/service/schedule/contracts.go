package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error)
	Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error)
	ListBlockedRanges(ctx context.Context, providerID int64, from, to *time.Time) ([]domain.BlockedRange, error)
	AddBlockedRange(ctx context.Context, br *domain.BlockedRange) (*domain.BlockedRange, error)
	DeleteBlockedRange(ctx context.Context, providerID, id int64) (*domain.BlockedRange, error)
}

// SlotCache сбрасывает закэшированные слоты при изменении расписания
type SlotCache interface {
	Invalidate(ctx context.Context, providerID int64, date time.Time) error
	InvalidateProvider(ctx context.Context, providerID int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
