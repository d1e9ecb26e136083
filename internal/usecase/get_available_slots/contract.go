package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalog"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// ListByFilter получает записи исполнителя на конкретную дату
	ListByFilter(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error)
	ListBlockedRanges(ctx context.Context, providerID int64, from, to *time.Time) ([]domain.BlockedRange, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetService(ctx context.Context, providerID, serviceID int64) (*catalog.Service, error)
}

// SlotCache кэш вычисленных слотов исполнителя на дату
// Generation читается до расчета; Set с устаревшим поколением не пишет в кэш
type SlotCache interface {
	Get(ctx context.Context, providerID int64, date time.Time, durationMinutes int) ([]domain.TimeSlot, bool, error)
	Generation(ctx context.Context, providerID int64, date time.Time) (string, error)
	Set(ctx context.Context, providerID int64, date time.Time, durationMinutes int, slots []domain.TimeSlot, generation string) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
