// Package models содержит доменные сущности clinic-backend.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — закрытое перечисление ролей учётной записи.
type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleResponder Role = "responder"
	RoleAdmin     Role = "admin"
)

// Valid сообщает, входит ли значение в перечисление.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleResponder, RoleAdmin:
		return true
	}

	return false
}

// Status — статус учётной записи.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPending   Status = "PENDING"
	StatusRejected  Status = "REJECTED"
	StatusSuspended Status = "SUSPENDED"
)

// Identity — учётная запись пользователя клиники.
//
// Важно:
//   - RefreshTokenHash хранит хэш единственного действующего refresh-токена;
//     пустая строка означает отсутствие активной сессии. Любая ротация или
//     logout заменяет/обнуляет значение одним атомарным UPDATE.
//   - PasswordHash — bcrypt.
type Identity struct {
	ID               uuid.UUID
	Role             Role
	Status           Status
	Email            string
	FullName         string
	PasswordHash     string
	RefreshTokenHash string
	IsVerified       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
