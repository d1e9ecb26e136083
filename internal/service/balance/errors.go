package balance

import "errors"

var (
	// ErrAccessDenied возвращается, когда пользователь запрашивает чужой баланс
	ErrAccessDenied = errors.New("access denied")
)
