package update_appointment_status

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgUnknownAction        = "неизвестное действие"
	msgMissingCode          = "код подтверждения обязателен"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "запись не найдена"
	msgForbidden            = "доступ запрещен"
	msgInvalidInput         = "некорректные данные запроса"
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

// Handle PATCH /api/v1/appointments/{appointmentId}/{action}
// action: confirm | start | complete | cancel | no-show
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	action := Action(mux.Vars(r)["action"])
	op := "PATCH /appointments/{id}/" + string(action)

	appointmentID, err := handlers.PathInt64(r, "appointmentId")
	if err != nil {
		h.logger.Warn("%s - Invalid appointment ID: %v", op, err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", op)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req StatusActionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", op, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var result *models.AppointmentResponse
	switch action {
	case ActionConfirm:
		result, err = h.service.Confirm(r.Context(), appointmentID, userID)
	case ActionStart:
		result, err = h.service.Start(r.Context(), appointmentID, userID)
	case ActionComplete:
		code := strings.TrimSpace(req.Code)
		if code == "" {
			h.logger.Warn("%s - Missing validation code: appointment_id=%d", op, appointmentID)
			handlers.RespondBadRequest(w, msgMissingCode)
			return
		}
		result, err = h.service.Complete(r.Context(), appointmentID, userID, code)
	case ActionCancel:
		result, err = h.service.Cancel(r.Context(), appointmentID, userID, req.Reason)
	case ActionNoShow:
		result, err = h.service.MarkNoShow(r.Context(), appointmentID, userID)
	default:
		h.logger.Warn("%s - Unknown action", op)
		handlers.RespondBadRequest(w, msgUnknownAction)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("%s - Appointment not found: appointment_id=%d", op, appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("%s - Access denied: appointment_id=%d, user_id=%d", op, appointmentID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, appointments.ErrInvalidInput):
			h.logger.Warn("%s - Invalid input: appointment_id=%d, error=%v", op, appointmentID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("%s - Rejected: appointment_id=%d, user_id=%d, error=%v", op, appointmentID, userID, err)

		default:
			h.logger.Error("%s - Failed: appointment_id=%d, user_id=%d, error=%v", op, appointmentID, userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Status updated successfully: appointment_id=%d, user_id=%d, status=%s",
		op, appointmentID, userID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
