package list_blocked_ranges

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров from и to (YYYY-MM-DD, опционально)
func ToServiceRequest(providerID int64, fromStr, toStr string) (*models.ListBlockedRangesRequest, error) {
	req := &models.ListBlockedRangesRequest{ProviderID: providerID}

	if fromStr != "" {
		from, err := time.Parse(domain.DateFormat, fromStr)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}

	if toStr != "" {
		to, err := time.Parse(domain.DateFormat, toStr)
		if err != nil {
			return nil, err
		}
		req.To = &to
	}

	return req, nil
}
