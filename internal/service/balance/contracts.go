package balance

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// AppointmentRepository источник завершенных записей
type AppointmentRepository interface {
	ListByFilter(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
	ListProviderIDs(ctx context.Context) ([]int64, error)
}

// BalanceRepository хранилище балансов
type BalanceRepository interface {
	Get(ctx context.Context, providerID int64) (*domain.ProviderBalance, error)
	Save(ctx context.Context, b *domain.ProviderBalance) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
