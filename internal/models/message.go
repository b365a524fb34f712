package models

import (
	"time"

	"github.com/google/uuid"
)

// Message — сообщение диалога (MongoDB).
//
// Важно:
//   - ID — ObjectID MongoDB; наружу конвертируется в string.
//   - RelationshipID/SenderID — UUID смежных сущностей.
//   - После создания неизменяемо, за исключением IsRead: переход только
//     false -> true (массово, когда вторая сторона читает историю).
type Message struct {
	ID             string    `bson:"_id,omitempty"`
	RelationshipID uuid.UUID `bson:"relationship_id"`
	SenderID       uuid.UUID `bson:"sender_id"`
	SenderRole     Role      `bson:"sender_role"`
	Body           string    `bson:"body"`
	IsRead         bool      `bson:"is_read"`
	CreatedAt      time.Time `bson:"created_at"`
}

// HistoryParams — параметры постраничной выдачи истории диалога.
type HistoryParams struct {
	Page     int32
	PageSize int32
}

// HistoryPage — страница истории: сообщения по возрастанию created_at
// и полное количество сообщений диалога.
type HistoryPage struct {
	Items      []Message
	TotalCount int64
}
