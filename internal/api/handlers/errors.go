package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	msgSlotConflict       = "выбранный временной слот уже занят"
	msgInvalidTransition  = "действие недоступно в текущем статусе записи"
	msgInvalidCode        = "неверный код подтверждения"
	msgScheduleViolation  = "время не соответствует расписанию исполнителя"
	msgPersistenceFailure = "ошибка хранилища, повторите запрос позже"
)

// RespondDomainError отвечает на доменные ошибки
// Возвращает false, если err не доменная ошибка и ответ не записан
//
//	ErrSlotConflict, ErrInvalidStateTransition -> 409
//	ErrInvalidValidationCode                   -> 422
//	ErrScheduleViolation                       -> 400
//	ErrPersistenceFailure                      -> 500
func RespondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrSlotConflict):
		RespondConflict(w, msgSlotConflict)
	case errors.Is(err, domain.ErrInvalidStateTransition):
		RespondConflict(w, msgInvalidTransition)
	case errors.Is(err, domain.ErrInvalidValidationCode):
		RespondUnprocessable(w, msgInvalidCode)
	case errors.Is(err, domain.ErrScheduleViolation):
		RespondBadRequest(w, msgScheduleViolation)
	case errors.Is(err, domain.ErrPersistenceFailure):
		RespondError(w, http.StatusInternalServerError, msgPersistenceFailure)
	default:
		return false
	}
	return true
}
