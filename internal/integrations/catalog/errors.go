package catalog

import "errors"

var (
	// ErrServiceNotFound возвращается, когда у исполнителя нет такой услуги
	ErrServiceNotFound = errors.New("catalog client: service not found")

	// ErrServiceInactive возвращается, когда услуга снята с публикации
	ErrServiceInactive = errors.New("catalog client: service is inactive")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("catalog client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("catalog client: invalid response")
)
