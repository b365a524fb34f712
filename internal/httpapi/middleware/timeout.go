package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout ограничивает обработку запроса дедлайном d. Уже выставленный
// дедлайн входящего контекста не переопределяется; d <= 0 отключает мидлвар.
// SSE-поток регистрируется без Timeout: живое соединение обязано переживать
// любой разумный дедлайн запроса.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
