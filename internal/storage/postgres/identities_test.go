package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Файл интеграционных тестов для пакета postgres (репозиторий identities.go):
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет миграции из ./migrations (1_init_identities.up.sql);
// - проверяет happy-path (создание и поиск по email/ID), уникальность email (CITEXT, регистронезависимо);
// - валидирует атомарные UPDATE-операции (ротация refresh-хэша, logout, верификация, смена пароля);
// - проверяет сценарии отсутствия записей (storage.ErrNotFound) и ошибки контекста.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — определяет корень репозитория относительно текущего файла тестов.
// Используется для поиска SQL-миграций в каталоге ./migrations независимо от текущего рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	root := repoRootFromThisFile()
	path := filepath.Join(root, "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный экземпляр PostgreSQL через testcontainers-go,
// применяет миграцию identities и возвращает инициализированное хранилище и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_identities.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

// newIdentity — тестовая активная учётная запись пациента.
func newIdentity(email string) *models.Identity {
	now := time.Now().UTC()
	return &models.Identity{
		ID:           uuid.New(),
		Role:         models.RolePatient,
		Status:       models.StatusActive,
		Email:        email,
		FullName:     "Иванов Иван",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestIntegration_SaveIdentity_And_ByEmail_And_ByID_OK — happy-path:
// сохранение учётной записи и последующий поиск по email и ID; проверка CITEXT (регистронезависимо).
func TestIntegration_SaveIdentity_And_ByEmail_And_ByID_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	identity := newIdentity("Patient@Example.Com")
	require.NoError(t, st.SaveIdentity(context.Background(), identity))

	gotByEmail, err := st.IdentityByEmail(context.Background(), strings.ToLower(identity.Email))
	require.NoError(t, err)
	require.Equal(t, identity.ID, gotByEmail.ID)
	require.Equal(t, models.RolePatient, gotByEmail.Role)
	require.Equal(t, models.StatusActive, gotByEmail.Status)
	require.Empty(t, gotByEmail.RefreshTokenHash)
	require.False(t, gotByEmail.IsVerified)
	require.WithinDuration(t, identity.CreatedAt, gotByEmail.CreatedAt, time.Second)

	gotByID, err := st.IdentityByID(context.Background(), identity.ID)
	require.NoError(t, err)
	require.Equal(t, identity.ID, gotByID.ID)
	require.Equal(t, identity.FullName, gotByID.FullName)
}

// TestIntegration_SaveIdentity_UniqueEmail_CaseInsensitive_Violation — конфликт уникальности по email
// при различии только в регистре, ожидаем storage.ErrAlreadyExists.
func TestIntegration_SaveIdentity_UniqueEmail_CaseInsensitive_Violation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	a := newIdentity("patient@example.com")
	require.NoError(t, st.SaveIdentity(context.Background(), a))

	b := newIdentity("PATIENT@EXAMPLE.COM") // тот же email, другой регистр
	err := st.SaveIdentity(context.Background(), b)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_RefreshTokenHash_Lifecycle — ротация refresh-хэша одним UPDATE:
// Set заменяет значение целиком, Clear обнуляет (в чтении пустая строка).
func TestIntegration_RefreshTokenHash_Lifecycle(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	identity := newIdentity("session@example.com")
	require.NoError(t, st.SaveIdentity(context.Background(), identity))

	require.NoError(t, st.SetRefreshTokenHash(context.Background(), identity.ID, "hash-1"))
	got, err := st.IdentityByID(context.Background(), identity.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-1", got.RefreshTokenHash)

	// повторный вход: прежний хэш вытесняется.
	require.NoError(t, st.SetRefreshTokenHash(context.Background(), identity.ID, "hash-2"))
	got, err = st.IdentityByID(context.Background(), identity.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-2", got.RefreshTokenHash)

	require.NoError(t, st.ClearRefreshTokenHash(context.Background(), identity.ID))
	got, err = st.IdentityByID(context.Background(), identity.ID)
	require.NoError(t, err)
	require.Empty(t, got.RefreshTokenHash)
}

// TestIntegration_MarkVerified_OK — выставление is_verified = true.
func TestIntegration_MarkVerified_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	identity := newIdentity("verify@example.com")
	require.NoError(t, st.SaveIdentity(context.Background(), identity))

	require.NoError(t, st.MarkVerified(context.Background(), identity.ID))

	got, err := st.IdentityByID(context.Background(), identity.ID)
	require.NoError(t, err)
	require.True(t, got.IsVerified)
}

// TestIntegration_UpdatePassword_RevokesSession — смена пароля одним UPDATE
// меняет password_hash и обнуляет refresh_token_hash.
func TestIntegration_UpdatePassword_RevokesSession(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	identity := newIdentity("reset@example.com")
	require.NoError(t, st.SaveIdentity(context.Background(), identity))
	require.NoError(t, st.SetRefreshTokenHash(context.Background(), identity.ID, "hash-1"))

	require.NoError(t, st.UpdatePassword(context.Background(), identity.ID, "new-hash"))

	got, err := st.IdentityByID(context.Background(), identity.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Empty(t, got.RefreshTokenHash)
}

// TestIntegration_Updates_NotFound — UPDATE-операции по отсутствующему ID
// возвращают storage.ErrNotFound.
func TestIntegration_Updates_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	absent := uuid.New()

	require.ErrorIs(t, st.SetRefreshTokenHash(context.Background(), absent, "hash"), storage.ErrNotFound)
	require.ErrorIs(t, st.ClearRefreshTokenHash(context.Background(), absent), storage.ErrNotFound)
	require.ErrorIs(t, st.MarkVerified(context.Background(), absent), storage.ErrNotFound)
	require.ErrorIs(t, st.UpdatePassword(context.Background(), absent, "hash"), storage.ErrNotFound)
}

// TestIntegration_IdentityByEmail_NotFound — поиск по email для отсутствующей записи,
// ожидаем storage.ErrNotFound.
func TestIntegration_IdentityByEmail_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.IdentityByEmail(context.Background(), "absent@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_IdentityByID_NotFound — поиск по ID для отсутствующей записи,
// ожидаем storage.ErrNotFound.
func TestIntegration_IdentityByID_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.IdentityByID(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_IdentityQueries_ContextCanceled — отменённый контекст должен «просочиться»
// в ошибки чтения (IdentityByEmail, IdentityByID) как context.Canceled.
func TestIntegration_IdentityQueries_ContextCanceled(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // отменяем заранее

	_, err := st.IdentityByEmail(ctx, "patient@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.IdentityByID(ctx, uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
