package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/storage"
)

const (
	otpCollection           = "otp_codes"
	relationshipsCollection = "relationships"
	messagesCollection      = "messages"

	defaultDBName = "clinic"
)

// Mongo — тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg           *config.Config
	client        *mongodriver.Client
	db            *mongodriver.Database
	otps          *mongodriver.Collection
	relationships *mongodriver.Collection
	messages      *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.Mongo.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.Mongo.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(cfg.Mongo.URL)
	db := cli.Database(dbName)

	m := &Mongo{
		cfg:           cfg,
		client:        cli,
		db:            db,
		otps:          db.Collection(otpCollection),
		relationships: db.Collection(relationshipsCollection),
		messages:      db.Collection(messagesCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы, необходимые ядру.
//   - otp_codes: уникальность пары (owner_id, purpose) — не более одного живого
//     кода на назначение; TTL по expires_at (expireAfterSeconds=0 -> используется
//     временная метка из документа, уборка — не источник истины об истечении).
//   - messages: история диалога (relationship_id + created_at ASC) и выборка
//     непрочитанных (relationship_id + is_read).
//   - relationships: участие identity в связях для подсчёта непрочитанного.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	otpModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "purpose", Value: 1}},
			Options: options.Index().SetName("owner_purpose_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}

	if _, err := m.otps.Indexes().CreateMany(ctx, otpModels); err != nil {
		return fmt.Errorf("mongo ensure otp indexes: %w", err)
	}

	msgModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "relationship_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("relationship_created_asc"),
		},
		{
			Keys:    bson.D{{Key: "relationship_id", Value: 1}, {Key: "is_read", Value: 1}},
			Options: options.Index().SetName("relationship_is_read"),
		},
	}

	if _, err := m.messages.Indexes().CreateMany(ctx, msgModels); err != nil {
		return fmt.Errorf("mongo ensure message indexes: %w", err)
	}

	relModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}},
			Options: options.Index().SetName("doctor_id"),
		},
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}},
			Options: options.Index().SetName("patient_id"),
		},
	}

	if _, err := m.relationships.Indexes().CreateMany(ctx, relModels); err != nil {
		return fmt.Errorf("mongo ensure relationship indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддаётся разбору, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

// Проверка на соответствие интерфейсу DocumentStorage.
var _ storage.DocumentStorage = (*Mongo)(nil)
