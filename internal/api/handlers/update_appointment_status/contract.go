package update_appointment_status

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

type AppointmentService interface {
	Confirm(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error)
	Start(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error)
	Complete(ctx context.Context, id, userID int64, code string) (*models.AppointmentResponse, error)
	Cancel(ctx context.Context, id, userID int64, reason *string) (*models.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
