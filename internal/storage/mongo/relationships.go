package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
)

// RelationshipByID возвращает связь врач-пациент по ID.
// Ядро чата читает связи, но не создаёт их — этим владеет CRUD-контур приёмов.
func (m *Mongo) RelationshipByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error) {
	const op = "storage/mongo/RelationshipByID"

	var out models.Relationship
	if err := m.relationships.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.CreatedAt = out.CreatedAt.UTC()

	return &out, nil
}

// participantRelationshipIDs возвращает ID всех связей, где identity — врач или пациент.
func (m *Mongo) participantRelationshipIDs(ctx context.Context, identityID uuid.UUID) ([]uuid.UUID, error) {
	filter := bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "doctor_id", Value: identityID}},
			bson.D{{Key: "patient_id", Value: identityID}},
		}},
	}

	cur, err := m.relationships.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	var ids []uuid.UUID
	for cur.Next(ctx) {
		var rel models.Relationship
		if err := cur.Decode(&rel); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		ids = append(ids, rel.ID)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}

	return ids, nil
}
