package models

import (
	"time"

	"github.com/google/uuid"
)

// OtpPurpose — назначение одноразового кода.
type OtpPurpose string

const (
	PurposeEmailVerify   OtpPurpose = "EMAIL_VERIFY"
	PurposePasswordReset OtpPurpose = "PASSWORD_RESET"
)

// Valid сообщает, входит ли значение в перечисление.
func (p OtpPurpose) Valid() bool {
	return p == PurposeEmailVerify || p == PurposePasswordReset
}

// OneTimeCode — одноразовый код подтверждения (MongoDB).
//
// Жизненный цикл строго: request -> (verify-success | verify-fail×N | expire).
// На пару (OwnerID, Purpose) одновременно существует не более одной живой записи;
// повторный запрос кода замещает предыдущую. Хранится только sha256-хэш кода.
// TTL-индекс по expires_at — лишь уборка хранилища: истечение всегда проверяется
// сервисом явно (now > ExpiresAt).
type OneTimeCode struct {
	OwnerID      uuid.UUID  `bson:"owner_id"`
	Purpose      OtpPurpose `bson:"purpose"`
	CodeHash     string     `bson:"code_hash"`
	ExpiresAt    time.Time  `bson:"expires_at"`
	AttemptsLeft int32      `bson:"attempts_left"`
	CreatedAt    time.Time  `bson:"created_at"`
}
