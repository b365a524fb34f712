package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
)

// ReplaceCode замещает живой код пары (owner_id, purpose) новым.
// Upsert по уникальному индексу: прежний код перестаёт существовать в тот же
// момент, когда появляется новый.
func (m *Mongo) ReplaceCode(ctx context.Context, code *models.OneTimeCode) error {
	const op = "storage/mongo/ReplaceCode"

	filter := bson.D{
		{Key: "owner_id", Value: code.OwnerID},
		{Key: "purpose", Value: code.Purpose},
	}

	_, err := m.otps.ReplaceOne(ctx, filter, code, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CodeByOwner возвращает живой код пары (owner_id, purpose).
// Просроченный, но ещё не убранный TTL-монитором документ здесь НЕ фильтруется:
// истечение — явная проверка сервиса, хранилище отдаёт то, что есть.
func (m *Mongo) CodeByOwner(ctx context.Context, owner uuid.UUID, purpose models.OtpPurpose) (*models.OneTimeCode, error) {
	const op = "storage/mongo/CodeByOwner"

	filter := bson.D{
		{Key: "owner_id", Value: owner},
		{Key: "purpose", Value: purpose},
	}

	var out models.OneTimeCode
	if err := m.otps.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.ExpiresAt = out.ExpiresAt.UTC()
	out.CreatedAt = out.CreatedAt.UTC()

	return &out, nil
}

// DecrementAttempts атомарно уменьшает attempts_left при условии attempts_left > 0
// (findAndModify). Конкурентные неверные вводы не могут увести счётчик ниже нуля:
// проигравший гонку получает storage.ErrNotFound.
func (m *Mongo) DecrementAttempts(ctx context.Context, owner uuid.UUID, purpose models.OtpPurpose) (int32, error) {
	const op = "storage/mongo/DecrementAttempts"

	filter := bson.D{
		{Key: "owner_id", Value: owner},
		{Key: "purpose", Value: purpose},
		{Key: "attempts_left", Value: bson.D{{Key: "$gt", Value: 0}}},
	}

	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "attempts_left", Value: -1}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.OneTimeCode
	if err := m.otps.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return out.AttemptsLeft, nil
}

// DeleteCode удаляет код пары (owner_id, purpose).
// Отсутствие записи не считается ошибкой: удаление идемпотентно.
func (m *Mongo) DeleteCode(ctx context.Context, owner uuid.UUID, purpose models.OtpPurpose) error {
	const op = "storage/mongo/DeleteCode"

	filter := bson.D{
		{Key: "owner_id", Value: owner},
		{Key: "purpose", Value: purpose},
	}

	if _, err := m.otps.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredCodes удаляет просроченные коды. Дублирует TTL-индекс и нужен
// только как уборка в окружениях без TTL-монитора (локальные тесты).
func (m *Mongo) DeleteExpiredCodes(ctx context.Context, now time.Time) error {
	const op = "storage/mongo/DeleteExpiredCodes"

	filter := bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now.UTC()}}},
	}

	if _, err := m.otps.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
