package payment_status

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgMissingStatus        = "статус платежа обязателен"
	msgUnknownStatus        = "неизвестный статус платежа"
	msgNotFound             = "запись не найдена"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/appointments/{appointmentId}/payment-status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathInt64(r, "appointmentId")
	if err != nil {
		h.logger.Warn("POST /internal/appointments/{id}/payment-status - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req PaymentStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /internal/appointments/{id}/payment-status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		h.logger.Warn("POST /internal/appointments/{id}/payment-status - Missing status: appointment_id=%d", appointmentID)
		handlers.RespondBadRequest(w, msgMissingStatus)
		return
	}

	result, err := h.service.ApplyPaymentStatus(r.Context(), appointmentID, status)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("POST /internal/appointments/{id}/payment-status - Appointment not found: appointment_id=%d", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrInvalidInput):
			h.logger.Warn("POST /internal/appointments/{id}/payment-status - Unknown status: appointment_id=%d, status=%q",
				appointmentID, status)
			handlers.RespondBadRequest(w, msgUnknownStatus)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("POST /internal/appointments/{id}/payment-status - Rejected: appointment_id=%d, status=%q, error=%v",
				appointmentID, status, err)

		default:
			h.logger.Error("POST /internal/appointments/{id}/payment-status - Failed: appointment_id=%d, error=%v", appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /internal/appointments/{id}/payment-status - Applied: appointment_id=%d, raw=%q, status=%s, payment_status=%s",
		appointmentID, status, result.Status, result.PaymentStatus)
	handlers.RespondJSON(w, http.StatusOK, result)
}
