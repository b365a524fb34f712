package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/pkg/redact"
	"github.com/avdonina/clinic-backend/internal/storage"
	"github.com/avdonina/clinic-backend/pkg/log"
)

// otpCodeSpan — мощность пространства кодов: 6 цифр без ведущего нуля,
// равномерно из [100000, 999999].
const (
	otpCodeMin  = 100000
	otpCodeSpan = 900000
)

// requestCode выпускает новый одноразовый код для пары (identity, purpose).
//
// Побочные эффекты:
//   - прежний живой код пары замещается (upsert) — верифицироваться он больше не может;
//   - открытый код уходит через Mailer; при недоступности транспорта запись
//     удаляется и возвращается ErrDeliveryUnavailable — пользователь не должен
//     ждать письмо, которое никогда не было отправлено.
func (s *Service) requestCode(ctx context.Context, identity *models.Identity, purpose models.OtpPurpose) error {
	const op = "service.otp.requestCode"

	lg := log.From(ctx)

	plain, err := generateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	code := &models.OneTimeCode{
		OwnerID:      identity.ID,
		Purpose:      purpose,
		CodeHash:     hashToken(plain),
		ExpiresAt:    now.Add(s.cfg.OTP.TTL),
		AttemptsLeft: s.cfg.OTP.Attempts,
		CreatedAt:    now,
	}

	if err := s.docs.ReplaceCode(ctx, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mail.SendCode(ctx, identity.Email, purpose, plain); err != nil {
		lg.Error("otp_delivery_failed",
			slog.String("op", op),
			slog.String("to", redact.Email(identity.Email)),
			slog.String("purpose", string(purpose)),
			slog.String("err", err.Error()),
		)

		// Код, который некому предъявить, не должен оставаться живым.
		_ = s.docs.DeleteCode(ctx, identity.ID, purpose)

		return fmt.Errorf("%s: %w", op, ErrDeliveryUnavailable)
	}

	return nil
}

// verifyCode проверяет предъявленный код и реализует конечный автомат записи:
// request -> (verify-success | verify-fail×N | expire).
//
// Порядок проверок:
//  1. наличие живой записи (иначе ErrOtpNotFound);
//  2. явная просрочка now > expires_at — запись удаляется (ErrOtpExpired);
//     TTL-уборка хранилища — только оптимизация, не источник истины;
//  3. исчерпание попыток — запись удаляется (ErrOtpAttemptsExhausted);
//  4. сравнение хэшей: несовпадение атомарно декрементирует attempts_left
//     (ErrOtpMismatch), совпадение удаляет запись — код строго одноразовый.
func (s *Service) verifyCode(ctx context.Context, ownerID uuid.UUID, purpose models.OtpPurpose, submitted string) error {
	const op = "service.otp.verifyCode"

	lg := log.From(ctx)

	code, err := s.docs.CodeByOwner(ctx, ownerID, purpose)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrOtpNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	if now.After(code.ExpiresAt) {
		if err := s.docs.DeleteCode(ctx, ownerID, purpose); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return fmt.Errorf("%s: %w", op, ErrOtpExpired)
	}

	if code.AttemptsLeft <= 0 {
		if err := s.docs.DeleteCode(ctx, ownerID, purpose); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return fmt.Errorf("%s: %w", op, ErrOtpAttemptsExhausted)
	}

	if code.CodeHash != hashToken(submitted) {
		left, err := s.docs.DecrementAttempts(ctx, ownerID, purpose)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Конкурентный ввод успел исчерпать попытки или удалить запись.
				return fmt.Errorf("%s: %w", op, ErrOtpAttemptsExhausted)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		lg.Warn("otp_mismatch",
			slog.String("op", op),
			slog.String("owner_id", ownerID.String()),
			slog.String("purpose", string(purpose)),
			slog.Int("attempts_left", int(left)),
		)

		return fmt.Errorf("%s: %w", op, ErrOtpMismatch)
	}

	if err := s.docs.DeleteCode(ctx, ownerID, purpose); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RequestEmailVerification выпускает и отправляет код подтверждения адреса.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) error {
	const op = "service.otp.RequestEmailVerification"

	identity, err := s.identityByNormEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if identity.IsVerified {
		return fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	if err := s.requestCode(ctx, identity, models.PurposeEmailVerify); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConfirmEmailVerification проверяет код и выставляет is_verified.
func (s *Service) ConfirmEmailVerification(ctx context.Context, email, code string) error {
	const op = "service.otp.ConfirmEmailVerification"

	identity, err := s.identityByNormEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.verifyCode(ctx, identity.ID, models.PurposeEmailVerify, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.identities.MarkVerified(ctx, identity.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RequestPasswordReset выпускает и отправляет код сброса пароля.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.otp.RequestPasswordReset"

	identity, err := s.identityByNormEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.requestCode(ctx, identity, models.PurposePasswordReset); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetPassword проверяет код сброса и устанавливает новый пароль.
// Успешный сброс обнуляет refresh-хэш тем же UPDATE, что меняет пароль:
// все выданные сессии принудительно завершаются.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "service.otp.ResetPassword"

	identity, err := s.identityByNormEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.verifyCode(ctx, identity.ID, models.PurposePasswordReset, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.identities.UpdatePassword(ctx, identity.ID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) identityByNormEmail(ctx context.Context, email string) (*models.Identity, error) {
	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	identity, err := s.identities.IdentityByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return identity, nil
}

// generateCode извлекает равномерный 6-значный код из crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpCodeSpan))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+otpCodeMin, 10), nil
}
