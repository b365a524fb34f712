package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
)

// RegisterInput — входные данные регистрации.
type RegisterInput struct {
	Role     models.Role
	Email    string
	Password string
	FullName string
}

// RegisterResult — результат регистрации.
// Для пациента Tokens выданы сразу; для врача Pending=true и Tokens==nil —
// учётка ждёт одобрения администратора.
type RegisterResult struct {
	IdentityID uuid.UUID
	Pending    bool
	Tokens     *models.TokenPair
}

// Register регистрирует новую учётную запись.
//
// Правила:
//   - самостоятельно регистрируются только роли patient и doctor;
//   - пациент создаётся в статусе ACTIVE и сразу получает пару токенов;
//   - врач создаётся в статусе PENDING без токенов (вход до одобрения закрыт).
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	const op = "service.auth.Register"

	if in.Role != models.RolePatient && in.Role != models.RoleDoctor {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.identities.IdentityByEmail(ctx, normEmail)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := models.StatusActive
	if in.Role == models.RoleDoctor {
		status = models.StatusPending
	}

	now := time.Now().UTC()
	identity := &models.Identity{
		ID:           uuid.New(),
		Role:         in.Role,
		Status:       status,
		Email:        normEmail,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identities.SaveIdentity(ctx, identity); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if identity.Status != models.StatusActive {
		return &RegisterResult{IdentityID: identity.ID, Pending: true}, nil
	}

	tokens, err := s.issueTokenPair(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RegisterResult{IdentityID: identity.ID, Tokens: tokens}, nil
}

// Login выполняет вход по email+пароль.
// Неверный email и неверный пароль неразличимы для вызывающего
// (ErrInvalidCredentials); статус, отличный от ACTIVE, отклоняется отдельно.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.Login"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	identity, err := s.identities.IdentityByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(identity.PasswordHash, password) {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if identity.Status != models.StatusActive {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrAccountNotActive)
	}

	tokens, err := s.issueTokenPair(ctx, identity)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return tokens, identity.ID, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
