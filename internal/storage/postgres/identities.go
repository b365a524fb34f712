package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
)

// SaveIdentity создаёт новую учётную запись.
// Конфликт уникальности email маппится в storage.ErrAlreadyExists.
func (s *Storage) SaveIdentity(ctx context.Context, identity *models.Identity) error {
	const op = "storage.postgres.SaveIdentity"

	query := `
        INSERT INTO identities(id, role, status, email, full_name, password_hash, refresh_token_hash, is_verified, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
    `

	_, err := s.db.Exec(ctx, query,
		identity.ID,
		string(identity.Role),
		string(identity.Status),
		identity.Email,
		identity.FullName,
		identity.PasswordHash,
		identity.RefreshTokenHash,
		identity.IsVerified,
		identity.CreatedAt,
		identity.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IdentityByEmail находит учётную запись по email.
func (s *Storage) IdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	const op = "storage.postgres.IdentityByEmail"

	query := `
        SELECT id, role, status, email, full_name, password_hash, COALESCE(refresh_token_hash, ''), is_verified, created_at, updated_at
        FROM identities
        WHERE email = $1
    `

	return s.scanIdentity(ctx, op, query, email)
}

// IdentityByID находит учётную запись по ID.
func (s *Storage) IdentityByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	const op = "storage.postgres.IdentityByID"

	query := `
        SELECT id, role, status, email, full_name, password_hash, COALESCE(refresh_token_hash, ''), is_verified, created_at, updated_at
        FROM identities
        WHERE id = $1
    `

	return s.scanIdentity(ctx, op, query, id)
}

func (s *Storage) scanIdentity(ctx context.Context, op, query string, arg any) (*models.Identity, error) {
	var (
		identity models.Identity
		role     string
		status   string
	)

	err := s.db.QueryRow(ctx, query, arg).Scan(
		&identity.ID,
		&role,
		&status,
		&identity.Email,
		&identity.FullName,
		&identity.PasswordHash,
		&identity.RefreshTokenHash,
		&identity.IsVerified,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	identity.Role = models.Role(role)
	identity.Status = models.Status(status)

	return &identity, nil
}

// SetRefreshTokenHash атомарно заменяет хэш действующего refresh-токена.
// Один UPDATE — прежний хэш (и все выданные под него токены) перестаёт действовать.
func (s *Storage) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.postgres.SetRefreshTokenHash"

	query := `
        UPDATE identities
        SET refresh_token_hash = $2, updated_at = now()
        WHERE id = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ClearRefreshTokenHash атомарно обнуляет refresh-хэш (logout/отзыв).
func (s *Storage) ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.ClearRefreshTokenHash"

	query := `
        UPDATE identities
        SET refresh_token_hash = NULL, updated_at = now()
        WHERE id = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// MarkVerified выставляет is_verified = true.
func (s *Storage) MarkVerified(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.MarkVerified"

	query := `
        UPDATE identities
        SET is_verified = TRUE, updated_at = now()
        WHERE id = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdatePassword одним UPDATE меняет хэш пароля и обнуляет refresh-хэш:
// после сброса пароля все выданные сессии становятся недействительными.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
        UPDATE identities
        SET password_hash = $2, refresh_token_hash = NULL, updated_at = now()
        WHERE id = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
