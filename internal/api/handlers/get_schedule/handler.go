package get_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
)

const (
	msgInvalidProviderID = "некорректный ID исполнителя"
	msgNotFound          = "расписание не найдено"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathInt64(r, "providerId")
	if err != nil {
		h.logger.Warn("GET /providers/{id}/schedule - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	result, err := h.service.Get(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound) {
			h.logger.Warn("GET /providers/{id}/schedule - Schedule not found: provider_id=%d", providerID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}

		h.logger.Error("GET /providers/{id}/schedule - Failed to get schedule: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /providers/{id}/schedule - Schedule retrieved successfully: provider_id=%d, blocked_ranges=%d",
		providerID, len(result.BlockedRanges))
	handlers.RespondJSON(w, http.StatusOK, result)
}
