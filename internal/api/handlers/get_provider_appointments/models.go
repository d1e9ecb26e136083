package get_provider_appointments

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(
	providerID int64,
	userID int64,
	dateStr string,
	statusStr string,
	includeCanceledStr string,
) (*models.ListProviderAppointmentsRequest, error) {
	req := &models.ListProviderAppointmentsRequest{
		UserID:     userID,
		ProviderID: providerID,
	}

	if dateStr != "" {
		date, err := time.Parse(domain.DateFormat, dateStr)
		if err != nil {
			return nil, err
		}
		req.Date = &date
	}

	if statusStr != "" {
		req.Status = &statusStr
	}

	// По умолчанию отмененные записи не показываются
	if includeCanceledStr != "" {
		includeCanceled, err := strconv.ParseBool(includeCanceledStr)
		if err != nil {
			return nil, err
		}
		req.IncludeCanceled = includeCanceled
	}

	return req, nil
}
