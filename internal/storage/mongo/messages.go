package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avdonina/clinic-backend/internal/models"
)

// limitOrDefault приводит запрошенный размер страницы к [Default, Max].
func limitOrDefault(defaultSize, maxSize, pageSize int32) int64 {
	lim := pageSize
	if lim <= 0 {
		lim = defaultSize
	}

	if lim > maxSize {
		lim = maxSize
	}

	return int64(lim)
}

// InsertMessage сохраняет новое сообщение и возвращает сохранённую копию.
// Временная метка нормализуется до миллисекунд (гранулярность Mongo DateTime).
func (m *Mongo) InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	const op = "storage/mongo/InsertMessage"

	out := *msg
	out.ID = ""
	out.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := m.messages.InsertOne(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	out.ID = oid.Hex()
	return &out, nil
}

// HistoryPage возвращает страницу сообщений диалога по возрастанию created_at
// (_id — вторичный ключ сортировки для стабильности) и полное количество.
// Номера страниц начинаются с 1; значения за пределами диапазона дают пустую выдачу.
func (m *Mongo) HistoryPage(ctx context.Context, relationshipID uuid.UUID, p models.HistoryParams) (*models.HistoryPage, error) {
	const op = "storage/mongo/HistoryPage"

	limit := limitOrDefault(m.cfg.Chat.DefaultPageSize, m.cfg.Chat.MaxPageSize, p.PageSize)

	page := int64(p.Page)
	if page < 1 {
		page = 1
	}

	filter := bson.D{{Key: "relationship_id", Value: relationshipID}}

	total, err := m.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := m.messages.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Message
	for cur.Next(ctx) {
		var msg models.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		msg.CreatedAt = msg.CreatedAt.UTC()
		items = append(items, msg)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return &models.HistoryPage{
		Items:      items,
		TotalCount: total,
	}, nil
}

// MarkMessagesRead массово переводит is_read false -> true для чужих сообщений
// диалога. Один UpdateMany — обратного перехода не существует, поэтому повторный
// вызов безопасен и просто не найдёт кандидатов.
func (m *Mongo) MarkMessagesRead(ctx context.Context, relationshipID, readerID uuid.UUID) (int64, error) {
	const op = "storage/mongo/MarkMessagesRead"

	filter := bson.D{
		{Key: "relationship_id", Value: relationshipID},
		{Key: "sender_id", Value: bson.D{{Key: "$ne", Value: readerID}}},
		{Key: "is_read", Value: false},
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "is_read", Value: true}}},
	}

	res, err := m.messages.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.ModifiedCount, nil
}

// UnreadCount считает непрочитанные чужие сообщения по всем связям identity.
func (m *Mongo) UnreadCount(ctx context.Context, callerID uuid.UUID) (int64, error) {
	const op = "storage/mongo/UnreadCount"

	relIDs, err := m.participantRelationshipIDs(ctx, callerID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(relIDs) == 0 {
		return 0, nil
	}

	filter := bson.D{
		{Key: "relationship_id", Value: bson.D{{Key: "$in", Value: relIDs}}},
		{Key: "sender_id", Value: bson.D{{Key: "$ne", Value: callerID}}},
		{Key: "is_read", Value: false},
	}

	count, err := m.messages.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", op, err)
	}

	return count, nil
}
