package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/httpapi/middleware"
	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/realtime"
	"github.com/avdonina/clinic-backend/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя: доменный сервис, realtime-шлюз
// и настройки пагинации чата.
type Handlers struct {
	svc  *service.Service
	gw   *realtime.Gateway
	chat config.ChatConfig
}

func New(svc *service.Service, gw *realtime.Gateway, chat config.ChatConfig) *Handlers {
	return &Handlers{
		svc:  svc,
		gw:   gw,
		chat: chat,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %s", errInvalidArgument, err)
	}
	return nil
}

type ctxKey int

const ctxCaller ctxKey = iota

// caller — аутентифицированный субъект запроса.
type caller struct {
	ID   uuid.UUID
	Role models.Role
}

// authenticate проверяет Bearer access-токен и кладёт субъекта в контекст.
// Запросы без валидного токена до защищённых хендлеров не доходят.
func (h *Handlers) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.AuthTokenFrom(r.Context())
		if !ok {
			WriteError(w, r, service.ErrInvalidToken)
			return
		}

		id, role, err := h.svc.ValidateAccessToken(token)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxCaller, caller{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom возвращает субъекта запроса; паника здесь означала бы маршрут,
// по ошибке зарегистрированный вне authenticate.
func callerFrom(ctx context.Context) (caller, bool) {
	c, ok := ctx.Value(ctxCaller).(caller)
	return c, ok
}
