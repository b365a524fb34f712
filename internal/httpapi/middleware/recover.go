package middleware

import (
	"log/slog"
	"net/http"

	logctx "github.com/avdonina/clinic-backend/pkg/log"
)

// Recover перехватывает panic и отвечает 500 в едином формате ошибок.
// Детали паники не утекают на клиент.
// Тело собирается локально: пакет не зависит от httpapi, формат с ним общий.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"internal error"}}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
