// mailer — внешний коллаборатор доставки одноразовых кодов.
// Ядро знает только интерфейс: транспорт (SMTP/лог) выбирается при сборке.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/pkg/redact"
)

// Mailer отправляет одноразовый код на адрес получателя.
// Ошибка отправки не ретраится на этом уровне и поднимается вызывающему.
type Mailer interface {
	SendCode(ctx context.Context, to string, purpose models.OtpPurpose, code string) error
}

// subjects — тема письма по назначению кода.
var subjects = map[models.OtpPurpose]string{
	models.PurposeEmailVerify:   "Подтверждение адреса электронной почты",
	models.PurposePasswordReset: "Сброс пароля",
}

// SMTP — доставка через внешний SMTP-релей (PLAIN auth).
type SMTP struct {
	cfg config.MailConfig
}

// NewSMTP создает SMTP-доставку.
func NewSMTP(cfg config.MailConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

// SendCode отправляет письмо с кодом. Контекст здесь не прерывает отправку:
// net/smtp не принимает context, а письмо либо ушло, либо нет — частичной
// отправки не бывает.
func (m *SMTP) SendCode(_ context.Context, to string, purpose models.OtpPurpose, code string) error {
	const op = "mailer.SMTP.SendCode"

	subject := subjects[purpose]
	body := fmt.Sprintf("Ваш код подтверждения: %s\r\nКод действует 10 минут.", code)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body,
	))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(m.cfg.Addr(), auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Log — доставка в лог вместо почты. Только для local/dev: код попадает в
// запись журнала в открытом виде, адрес — в маскированном.
type Log struct {
	log *slog.Logger
}

// NewLog создает лог-доставку.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (m *Log) SendCode(ctx context.Context, to string, purpose models.OtpPurpose, code string) error {
	m.log.InfoContext(ctx, "otp_code_issued",
		slog.String("to", redact.Email(to)),
		slog.String("purpose", string(purpose)),
		slog.String("code", code),
	)

	return nil
}
