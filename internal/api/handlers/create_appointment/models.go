package create_appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createAppointment "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	errParseDate = errors.New("invalid date")
	errParseTime = errors.New("invalid start time")
)

// CreateAppointmentRequest HTTP request model
// Клиент берется из X-User-ID, а не из тела
type CreateAppointmentRequest struct {
	ProviderID   int64   `json:"providerId"`
	ServiceID    int64   `json:"serviceId"`
	Date         string  `json:"date"`      // "2025-10-15"
	StartTime    string  `json:"startTime"` // "10:00"
	Notes        *string `json:"notes,omitempty"`
	AsyncPayment bool    `json:"asyncPayment"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(clientID int64) (*createAppointment.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errParseDate, err)
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errParseTime, err)
	}

	return &createAppointment.Request{
		ClientID:     clientID,
		ProviderID:   r.ProviderID,
		ServiceID:    r.ServiceID,
		Date:         date,
		StartTime:    startTime,
		Notes:        r.Notes,
		AsyncPayment: r.AsyncPayment,
	}, nil
}
