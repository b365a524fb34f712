// storage задаёт контракты хранилищ clinic-backend и их ошибки-сентинели.
//
// Учётные записи лежат в PostgreSQL (storage/postgres), документные сущности —
// одноразовые коды, связи врач-пациент и сообщения — в MongoDB (storage/mongo).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// IdentityStorage выполняет операции над учётными записями.
//
// Все мутации RefreshTokenHash — одиночные атомарные UPDATE: гонка между
// конкурентной ротацией и logout разрешается на уровне БД, а не приложения.
type IdentityStorage interface {
	// SaveIdentity создаёт новую учётную запись.
	SaveIdentity(ctx context.Context, identity *models.Identity) error
	// IdentityByEmail находит учётную запись по email.
	IdentityByEmail(ctx context.Context, email string) (*models.Identity, error)
	// IdentityByID находит учётную запись по ID.
	IdentityByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	// SetRefreshTokenHash атомарно заменяет хэш действующего refresh-токена,
	// делая недействительными все ранее выданные.
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error
	// ClearRefreshTokenHash атомарно обнуляет хэш (logout/отзыв).
	ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error
	// MarkVerified выставляет is_verified = true.
	MarkVerified(ctx context.Context, id uuid.UUID) error
	// UpdatePassword одним UPDATE меняет хэш пароля и обнуляет refresh-хэш
	// (принудительный re-login после сброса пароля).
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// OtpStorage выполняет операции над одноразовыми кодами.
type OtpStorage interface {
	// ReplaceCode замещает живой код пары (owner_id, purpose) новым (upsert).
	ReplaceCode(ctx context.Context, code *models.OneTimeCode) error
	// CodeByOwner возвращает живой код пары (owner_id, purpose).
	CodeByOwner(ctx context.Context, owner uuid.UUID, purpose models.OtpPurpose) (*models.OneTimeCode, error)
	// DecrementAttempts атомарно уменьшает attempts_left на 1 при условии
	// attempts_left > 0 и возвращает остаток. Если условие не выполнено —
	// ErrNotFound (запись отсутствует либо попытки уже исчерпаны).
	DecrementAttempts(ctx context.Context, owner uuid.UUID, purpose models.OtpPurpose) (int32, error)
	// DeleteCode удаляет код пары (owner_id, purpose).
	DeleteCode(ctx context.Context, owner uuid.UUID, purpose models.OtpPurpose) error
	// DeleteExpiredCodes удаляет просроченные коды (фоновая уборка; корректность
	// от неё не зависит — истечение проверяется сервисом явно).
	DeleteExpiredCodes(ctx context.Context, now time.Time) error
}

// RelationshipStorage — read-only доступ к связям врач-пациент.
// Создание/изменение связей принадлежит внешнему CRUD-контуру приёмов.
type RelationshipStorage interface {
	// RelationshipByID возвращает связь по ID.
	RelationshipByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error)
}

// ChatStorage выполняет операции над сообщениями диалогов.
type ChatStorage interface {
	// InsertMessage сохраняет новое сообщение (is_read=false) и возвращает
	// сохранённую копию с проставленным ID.
	InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// HistoryPage возвращает страницу сообщений диалога по возрастанию
	// created_at вместе с полным количеством.
	HistoryPage(ctx context.Context, relationshipID uuid.UUID, p models.HistoryParams) (*models.HistoryPage, error)
	// MarkMessagesRead массово переводит is_read false -> true для сообщений
	// диалога, отправленных НЕ читателем. Возвращает число обновлённых записей.
	MarkMessagesRead(ctx context.Context, relationshipID, readerID uuid.UUID) (int64, error)
	// UnreadCount считает непрочитанные чужие сообщения по всем связям,
	// в которых состоит identity.
	UnreadCount(ctx context.Context, callerID uuid.UUID) (int64, error)
}

// DocumentStorage объединяет документные хранилища MongoDB.
type DocumentStorage interface {
	OtpStorage
	RelationshipStorage
	ChatStorage
	Close(ctx context.Context) error
}
