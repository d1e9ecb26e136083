package schedule

import "errors"

var (
	// ErrScheduleNotFound возвращается, когда у исполнителя нет расписания
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrBlockedRangeNotFound возвращается, когда заблокированный интервал не найден
	ErrBlockedRangeNotFound = errors.New("blocked range not found")

	// ErrAccessDenied возвращается, когда пользователь пытается изменить чужое расписание
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")
)
