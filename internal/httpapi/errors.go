// httpapi — HTTP-слой clinic-backend: REST-маршруты, realtime-канал (SSE) и
// маппинг доменных ошибок на статусы/коды ответа.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avdonina/clinic-backend/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе об ошибке.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// errInvalidArgument — локальная ошибка разбора входных данных (битый JSON,
// кривой UUID в пути и т.п.); наружу уходит как 400/invalid_argument.
var errInvalidArgument = errors.New("invalid argument")

// ToHTTP конвертирует доменную ошибку сервиса в HTTP-статус и унифицированный
// ответ для фронта.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - неизвестная ошибка — 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := baseFromDomain(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromDomain — маппинг доменных ошибок -> HTTP/FE-код/сообщение.
// Источник истинности по маппингу: комментарии к сентинелям пакета service.
func baseFromDomain(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"

	case errors.Is(err, errInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", "invalid email format"
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role", "invalid role"
	case errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "empty_password", "password is empty"
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password", "password is too weak"
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message", "message body is empty"

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", "token expired"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", "invalid token"
	case errors.Is(err, service.ErrOtpExpired):
		return http.StatusUnauthorized, "otp_expired", "code expired"
	case errors.Is(err, service.ErrOtpAttemptsExhausted):
		return http.StatusUnauthorized, "otp_attempts_exhausted", "no attempts left"
	case errors.Is(err, service.ErrOtpMismatch):
		return http.StatusUnauthorized, "otp_mismatch", "wrong code"

	case errors.Is(err, service.ErrAccountNotActive):
		return http.StatusForbidden, "account_not_active", "account is not active"
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, "access_denied", "access denied"

	case errors.Is(err, service.ErrOtpNotFound):
		return http.StatusNotFound, "otp_not_found", "no active code"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"

	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "email_taken", "email already taken"
	case errors.Is(err, service.ErrAlreadyVerified):
		return http.StatusConflict, "already_verified", "email already verified"

	case errors.Is(err, service.ErrDeliveryUnavailable):
		return http.StatusServiceUnavailable, "delivery_unavailable", "delivery unavailable"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"

	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
