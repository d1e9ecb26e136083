package reconcile

import "context"

// Reconciler пересчитывает балансы всех исполнителей
type Reconciler interface {
	RecomputeAll(ctx context.Context) (succeeded, failed int, err error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
