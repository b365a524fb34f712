// service содержит бизнес-логику clinic-backend:
// жизненный цикл учётных данных (токены, одноразовые коды) и доступ к
// сообщениям диалогов через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилища потокобезопасны.
//   - Все гонки по разделяемому состоянию (замена refresh-хэша, декремент
//     попыток OTP, массовый перевод is_read) закрываются атомарными условными
//     операциями хранилищ, а не мьютексами приложения.
//   - Ошибки возвращаются типизированно и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/mailer"
	"github.com/avdonina/clinic-backend/internal/storage"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или учётка не найдена.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// либо его хэш не совпадает с действующим. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrAccountNotActive — учётка не в статусе ACTIVE (PENDING/REJECTED/SUSPENDED).
	// HTTP 403.
	ErrAccountNotActive = errors.New("account is not active")

	// ErrAccessDenied — вызывающий не является участником связи врач-пациент.
	// Намеренно неотличимо от отсутствия связи (анти-перебор ID). HTTP 403.
	ErrAccessDenied = errors.New("access denied")

	// ErrOtpNotFound — живого кода для пары (identity, purpose) нет. HTTP 404.
	ErrOtpNotFound = errors.New("otp not found")

	// ErrOtpExpired — код просрочен; запись удалена. HTTP 401.
	ErrOtpExpired = errors.New("otp expired")

	// ErrOtpAttemptsExhausted — попытки ввода исчерпаны; запись удалена. HTTP 401.
	ErrOtpAttemptsExhausted = errors.New("otp attempts exhausted")

	// ErrOtpMismatch — код не совпал; счётчик попыток уменьшен. HTTP 401.
	ErrOtpMismatch = errors.New("otp mismatch")

	// ErrDeliveryUnavailable — транспорт доставки кода недоступен.
	// Не ретраится на этом уровне и никогда не замалчивается. HTTP 503.
	ErrDeliveryUnavailable = errors.New("delivery unavailable")

	// ErrEmptyMessage — тело сообщения пусто после TrimSpace. HTTP 400.
	ErrEmptyMessage = errors.New("empty message body")

	// ErrEmailTaken — e-mail уже занят другой учёткой. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrAlreadyVerified — адрес уже подтверждён. HTTP 409.
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidRole — роль вне перечисления или недоступна для саморегистрации.
	// HTTP 400.
	ErrInvalidRole = errors.New("invalid role")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrNotFound — учётная запись не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")
)

// Service описывает бизнес-логику clinic-backend.
type Service struct {
	identities storage.IdentityStorage
	docs       storage.DocumentStorage
	mail       mailer.Mailer
	cfg        *config.Config
}

// New создаёт новый экземпляр Service.
func New(identities storage.IdentityStorage, docs storage.DocumentStorage, mail mailer.Mailer, cfg *config.Config) *Service {
	return &Service{
		identities: identities,
		docs:       docs,
		mail:       mail,
		cfg:        cfg,
	}
}
