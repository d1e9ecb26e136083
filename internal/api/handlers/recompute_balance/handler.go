package recompute_balance

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/balance"
)

const (
	msgInvalidProviderID = "некорректный ID исполнителя"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgForbidden         = "доступ запрещен"
)

type Handler struct {
	service BalanceService
	logger  Logger
}

func NewHandler(service BalanceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/providers/{providerId}/balance/recompute
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathInt64(r, "providerId")
	if err != nil {
		h.logger.Warn("POST /providers/{id}/balance/recompute - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /providers/{id}/balance/recompute - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.RecomputeForUser(r.Context(), providerID, userID)
	if err != nil {
		if errors.Is(err, balance.ErrAccessDenied) {
			h.logger.Warn("POST /providers/{id}/balance/recompute - Access denied: provider_id=%d, user_id=%d", providerID, userID)
			handlers.RespondForbidden(w, msgForbidden)
			return
		}

		h.logger.Error("POST /providers/{id}/balance/recompute - Failed to recompute: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /providers/{id}/balance/recompute - Balance recomputed: provider_id=%d, balance=%s",
		providerID, result.Balance)
	handlers.RespondJSON(w, http.StatusOK, result)
}
