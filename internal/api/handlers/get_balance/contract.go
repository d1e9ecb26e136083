package get_balance

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/balance/models"
)

type BalanceService interface {
	Get(ctx context.Context, providerID, userID int64) (*models.BalanceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
