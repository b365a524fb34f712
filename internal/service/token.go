package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/pkg/redact"
	"github.com/avdonina/clinic-backend/internal/storage"
	"github.com/avdonina/clinic-backend/pkg/log"
)

// tokenClaims — полезная нагрузка access- и refresh-токенов: identity и роль.
type tokenClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateAccessToken генерирует access-токен: stateless HS256 JWT с коротким
// сроком жизни, проверка — чистая валидация подписи и срока.
func (s *Service) generateAccessToken(ctx context.Context, identityID uuid.UUID, role models.Role, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	signed, err := s.signToken(identityID, role, now, s.cfg.Auth.AccessTokenTTL, s.cfg.Auth.AccessSecret)
	if err != nil {
		log.From(ctx).Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// generateRefreshToken генерирует refresh-токен (HS256 JWT, срок жизни — дни).
// Вызвавший обязан сохранить hashToken(plain) в Identity.RefreshTokenHash.
func (s *Service) generateRefreshToken(ctx context.Context, identityID uuid.UUID, role models.Role, now time.Time) (string, error) {
	const op = "service.token.generateRefreshToken"

	signed, err := s.signToken(identityID, role, now, s.cfg.Auth.RefreshTokenTTL, s.cfg.Auth.RefreshSecret)
	if err != nil {
		log.From(ctx).Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (s *Service) signToken(identityID uuid.UUID, role models.Role, now time.Time, ttl time.Duration, secret string) (string, error) {
	claims := tokenClaims{
		UserID: identityID.String(),
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Auth.Issuer,
			Subject:   identityID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Auth.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}

// ValidateAccessToken проверяет access-токен и возвращает identity и роль.
// Один и тот же контракт для HTTP-запросов и для аутентификации realtime-соединений.
func (s *Service) ValidateAccessToken(tokenStr string) (uuid.UUID, models.Role, error) {
	const op = "service.token.ValidateAccessToken"

	uid, role, err := s.parseToken(tokenStr, s.cfg.Auth.AccessSecret)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return uid, role, nil
}

func (s *Service) parseToken(tokenStr, secret string) (uuid.UUID, models.Role, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}

			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Auth.Issuer),
		jwt.WithAudience(s.cfg.Auth.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, "", ErrTokenExpired
		}

		return uuid.Nil, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}

	role := models.Role(claims.Role)
	if !role.Valid() {
		return uuid.Nil, "", ErrInvalidToken
	}

	return uid, role, nil
}

// RotateAccessToken обменивает refresh-токен на новый access-токен.
//
// Порядок проверок:
//  1. подпись/срок refresh-токена (просрочка -> ErrTokenExpired);
//  2. учётка по id из токена (отсутствие -> ErrInvalidToken);
//  3. сравнение хэша предъявленного токена с действующим refresh-хэшем —
//     несовпадение покрывает отозванные и вытесненные логином токены.
//
// Refresh-токен на этом пути НЕ перевыпускается: действующим остаётся прежний
// (см. DESIGN.md, решение по отсутствию rotation-on-use).
func (s *Service) RotateAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	const op = "service.token.RotateAccessToken"

	lg := log.From(ctx)

	uid, _, err := s.parseToken(refreshToken, s.cfg.Auth.RefreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	identity, err := s.identities.IdentityByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_identity_missing",
				slog.String("op", op),
				slog.String("token", redact.Token()),
			)
			return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if identity.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(identity.RefreshTokenHash), []byte(hashToken(refreshToken))) != 1 {
		lg.Warn("refresh_hash_mismatch",
			slog.String("op", op),
			slog.String("identity_id", identity.ID.String()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if identity.Status != models.StatusActive {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrAccountNotActive)
	}

	now := time.Now().UTC()
	access, err := s.generateAccessToken(ctx, identity.ID, identity.Role, now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return access, now.Add(s.cfg.Auth.AccessTokenTTL), nil
}

// RevokeTokens отзывает действующий refresh-токен учётки (logout).
// Access-токены дорабатывают свой короткий срок: серверного реестра у них нет.
func (s *Service) RevokeTokens(ctx context.Context, identityID uuid.UUID) error {
	const op = "service.token.RevokeTokens"

	if err := s.identities.ClearRefreshTokenHash(ctx, identityID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// issueTokenPair выпускает пару access+refresh и атомарно заменяет refresh-хэш
// учётки: ровно одна действующая сессия на identity.
func (s *Service) issueTokenPair(ctx context.Context, identity *models.Identity) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	now := time.Now().UTC()

	access, err := s.generateAccessToken(ctx, identity.ID, identity.Role, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.generateRefreshToken(ctx, identity.ID, identity.Role, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.identities.SetRefreshTokenHash(ctx, identity.ID, hashToken(refresh)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(s.cfg.Auth.AccessTokenTTL),
	}, nil
}

// hashToken — sha256 от токена в base64url; в БД хранится только хэш.
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}
