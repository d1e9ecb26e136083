package get_available_slots

import "errors"

var (
	// ErrServiceNotFound возвращается, когда у исполнителя нет такой услуги
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceInactive возвращается, когда услуга снята с публикации
	ErrServiceInactive = errors.New("service is inactive")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
