package delete_blocked_range

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
)

const (
	msgInvalidProviderID = "некорректный ID исполнителя"
	msgInvalidRangeID    = "некорректный ID интервала"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgForbidden         = "доступ запрещен"
	msgNotFound          = "интервал блокировки не найден"
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

// Handle DELETE /api/v1/providers/{providerId}/schedule/blocked-ranges/{rangeId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathInt64(r, "providerId")
	if err != nil {
		h.logger.Warn("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	rangeID, err := handlers.PathInt64(r, "rangeId")
	if err != nil {
		h.logger.Warn("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Invalid range ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRangeID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	if err := h.service.RemoveBlockedRange(r.Context(), providerID, rangeID, userID); err != nil {
		switch {
		case errors.Is(err, schedule.ErrAccessDenied):
			h.logger.Warn("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Access denied: provider_id=%d, user_id=%d",
				providerID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, schedule.ErrBlockedRangeNotFound):
			h.logger.Warn("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Not found: provider_id=%d, range_id=%d",
				providerID, rangeID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Failed: provider_id=%d, range_id=%d, error=%v",
				providerID, rangeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /providers/{id}/schedule/blocked-ranges/{id} - Blocked range removed: provider_id=%d, range_id=%d",
		providerID, rangeID)
	handlers.RespondNoContent(w)
}
