package middleware

import (
	"context"
	"net/http"
	"strings"
)

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен
// в контекст. Если заголовка нет, допускается query-параметр ?token= —
// EventSource в браузере не умеет выставлять заголовки для SSE-потока.
// Валидность токена здесь не проверяется: этим занимается authn-обёртка
// httpapi поверх доменного сервиса.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""

			if auth := r.Header.Get("Authorization"); auth != "" {
				const prefix = "Bearer "
				if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
					token = strings.TrimSpace(auth[len(prefix):])
				}
			}

			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if token != "" {
				ctx := context.WithValue(r.Context(), ctxAuthToken, token)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthTokenFrom возвращает сырой Bearer-токен из контекста запроса.
func AuthTokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxAuthToken).(string)
	return token, ok
}
