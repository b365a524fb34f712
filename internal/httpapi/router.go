package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avdonina/clinic-backend/internal/httpapi/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.AuthBearer(),         // вынимаем Bearer токен в контекст для authenticate
	)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, opts.Timeout)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, opts.Timeout)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *Handlers, timeout time.Duration) {
	// Публичные маршруты: учётные данные и восстановление доступа.
	r.Group(func(r chi.Router) {
		if timeout > 0 {
			r.Use(middleware.Timeout(timeout))
		}

		r.Post("/auth/register", h.RegisterIdentity)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/verify-email/request", h.RequestEmailVerification)
		r.Post("/auth/verify-email/confirm", h.ConfirmEmailVerification)
		r.Post("/auth/password-reset/request", h.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", h.ResetPassword)
	})

	// Защищённые маршруты: валидный access-токен обязателен.
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		if timeout > 0 {
			r.Use(middleware.Timeout(timeout))
		}

		r.Post("/auth/logout", h.Logout)

		r.Get("/chat/unread", h.UnreadCount)
		r.Get("/chat/{relationship_id}", h.History)
		r.Post("/chat", h.SendMessage)

		r.Post("/realtime/{conn_id}/events", h.PushEvent)
	})

	// SSE-поток без Timeout: соединение живёт дольше любого разумного
	// дедлайна запроса.
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/realtime/stream", h.Stream)
	})
}
