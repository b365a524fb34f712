package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
)

func verifiedOwner(id uuid.UUID) *models.Identity {
	return &models.Identity{
		ID:         id,
		Role:       models.RolePatient,
		Status:     models.StatusActive,
		Email:      "user@example.com",
		IsVerified: true,
	}
}

func liveCode(owner uuid.UUID, purpose models.OtpPurpose, plain string, attemptsLeft int32) *models.OneTimeCode {
	now := time.Now().UTC()
	return &models.OneTimeCode{
		OwnerID:      owner,
		Purpose:      purpose,
		CodeHash:     hashToken(plain),
		ExpiresAt:    now.Add(10 * time.Minute),
		AttemptsLeft: attemptsLeft,
		CreatedAt:    now,
	}
}

func TestRequestEmailVerification_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	owner := verifiedOwner(id)
	owner.IsVerified = false

	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").Return(owner, nil)

	var storedHash string
	m.docs.EXPECT().ReplaceCode(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, code *models.OneTimeCode) error {
			require.Equal(t, id, code.OwnerID)
			require.Equal(t, models.PurposeEmailVerify, code.Purpose)
			require.Equal(t, svc.cfg.OTP.Attempts, code.AttemptsLeft)
			require.WithinDuration(t, time.Now().Add(svc.cfg.OTP.TTL), code.ExpiresAt, 2*time.Second)
			storedHash = code.CodeHash
			return nil
		})
	m.mail.EXPECT().SendCode(gomock.Any(), "user@example.com", models.PurposeEmailVerify, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ models.OtpPurpose, plain string) error {
			// В письме — открытый код, в хранилище — только его хэш.
			require.Len(t, plain, 6)
			require.Equal(t, storedHash, hashToken(plain))
			return nil
		})

	require.NoError(t, svc.RequestEmailVerification(context.Background(), "User@Example.com"))
}

func TestRequestEmailVerification_AlreadyVerified(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").
		Return(verifiedOwner(uuid.New()), nil)

	err := svc.RequestEmailVerification(context.Background(), "user@example.com")
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestRequestPasswordReset_DeliveryFailure(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").
		Return(verifiedOwner(id), nil)
	m.docs.EXPECT().ReplaceCode(gomock.Any(), gomock.Any()).Return(nil)
	m.mail.EXPECT().SendCode(gomock.Any(), "user@example.com", models.PurposePasswordReset, gomock.Any()).
		Return(errors.New("smtp: connection refused"))
	// Недоставленный код не должен оставаться живым.
	m.docs.EXPECT().DeleteCode(gomock.Any(), id, models.PurposePasswordReset).Return(nil)

	err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	require.ErrorIs(t, err, ErrDeliveryUnavailable)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmEmailVerification_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	owner := verifiedOwner(id)
	owner.IsVerified = false

	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").Return(owner, nil)
	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposeEmailVerify).
		Return(liveCode(id, models.PurposeEmailVerify, "123456", 5), nil)
	m.docs.EXPECT().DeleteCode(gomock.Any(), id, models.PurposeEmailVerify).Return(nil)
	m.identities.EXPECT().MarkVerified(gomock.Any(), id).Return(nil)

	require.NoError(t, svc.ConfirmEmailVerification(context.Background(), "user@example.com", "123456"))
}

func TestConfirmEmailVerification_NoLiveCode(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").
		Return(verifiedOwner(id), nil)
	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposeEmailVerify).
		Return(nil, storage.ErrNotFound)

	// Повтор уже использованного кода приходит сюда же: записи больше нет.
	err := svc.ConfirmEmailVerification(context.Background(), "user@example.com", "123456")
	require.ErrorIs(t, err, ErrOtpNotFound)
}

func TestVerifyCode_Expired(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	code := liveCode(id, models.PurposeEmailVerify, "123456", 5)
	code.ExpiresAt = time.Now().UTC().Add(-time.Second)

	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposeEmailVerify).Return(code, nil)
	m.docs.EXPECT().DeleteCode(gomock.Any(), id, models.PurposeEmailVerify).Return(nil)

	err := svc.verifyCode(context.Background(), id, models.PurposeEmailVerify, "123456")
	require.ErrorIs(t, err, ErrOtpExpired)
}

func TestVerifyCode_Mismatch(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposePasswordReset).
		Return(liveCode(id, models.PurposePasswordReset, "123456", 5), nil)
	m.docs.EXPECT().DecrementAttempts(gomock.Any(), id, models.PurposePasswordReset).
		Return(int32(4), nil)

	err := svc.verifyCode(context.Background(), id, models.PurposePasswordReset, "654321")
	require.ErrorIs(t, err, ErrOtpMismatch)
}

func TestVerifyCode_ExhaustedThenCorrect(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()

	// Пять неверных вводов съели все попытки.
	for left := int32(4); left >= 0; left-- {
		m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposeEmailVerify).
			Return(liveCode(id, models.PurposeEmailVerify, "123456", left+1), nil)
		m.docs.EXPECT().DecrementAttempts(gomock.Any(), id, models.PurposeEmailVerify).
			Return(left, nil)

		err := svc.verifyCode(context.Background(), id, models.PurposeEmailVerify, "000000")
		require.ErrorIs(t, err, ErrOtpMismatch)
	}

	// Шестой ввод с ПРАВИЛЬНЫМ кодом всё равно отклоняется: попыток не осталось.
	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposeEmailVerify).
		Return(liveCode(id, models.PurposeEmailVerify, "123456", 0), nil)
	m.docs.EXPECT().DeleteCode(gomock.Any(), id, models.PurposeEmailVerify).Return(nil)

	err := svc.verifyCode(context.Background(), id, models.PurposeEmailVerify, "123456")
	require.ErrorIs(t, err, ErrOtpAttemptsExhausted)
}

func TestVerifyCode_DecrementRace(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposeEmailVerify).
		Return(liveCode(id, models.PurposeEmailVerify, "123456", 1), nil)
	// Конкурентный ввод успел обнулить attempts_left между чтением и декрементом.
	m.docs.EXPECT().DecrementAttempts(gomock.Any(), id, models.PurposeEmailVerify).
		Return(int32(0), storage.ErrNotFound)

	err := svc.verifyCode(context.Background(), id, models.PurposeEmailVerify, "000000")
	require.ErrorIs(t, err, ErrOtpAttemptsExhausted)
}

func TestResetPassword_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").
		Return(verifiedOwner(id), nil)
	m.docs.EXPECT().CodeByOwner(gomock.Any(), id, models.PurposePasswordReset).
		Return(liveCode(id, models.PurposePasswordReset, "123456", 5), nil)
	m.docs.EXPECT().DeleteCode(gomock.Any(), id, models.PurposePasswordReset).Return(nil)
	m.identities.EXPECT().UpdatePassword(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
			require.True(t, checkPassword(hash, "NewPass1!"))
			return nil
		})

	require.NoError(t, svc.ResetPassword(context.Background(), "user@example.com", "123456", "NewPass1!"))
}

func TestResetPassword_WeakPasswordBeforeCodeSpent(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Слабый пароль отклоняется ДО обращения к коду: попытка не тратится.
	m.identities.EXPECT().IdentityByEmail(gomock.Any(), "user@example.com").
		Return(verifiedOwner(uuid.New()), nil)

	err := svc.ResetPassword(context.Background(), "user@example.com", "123456", "weak")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestGenerateCode_SixDigits(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.GreaterOrEqual(t, code[0], byte('1'))
	}
}
