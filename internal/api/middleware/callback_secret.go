package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const (
	// CallbackSecretHeader заголовок с общим секретом платежного процессора
	CallbackSecretHeader = "X-Callback-Secret"

	msgMissingCallbackSecret = "отсутствует заголовок X-Callback-Secret"
	msgInvalidCallbackSecret = "неверный секрет колбэка"
)

// CallbackSecret пропускает запрос, только если заголовок X-Callback-Secret совпадает с secret
// Пустой secret отклоняет все запросы
func CallbackSecret(secret string) mux.MiddlewareFunc {
	expected := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(CallbackSecretHeader)
			if got == "" {
				handlers.RespondUnauthorized(w, msgMissingCallbackSecret)
				return
			}

			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				handlers.RespondUnauthorized(w, msgInvalidCallbackSecret)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
