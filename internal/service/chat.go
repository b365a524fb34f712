package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
	"github.com/avdonina/clinic-backend/pkg/log"
)

// Authorize проверяет, что вызывающий — участник связи врач-пациент.
//
// Проверка выполняется на каждом чтении и каждой записи и не кэшируется:
// состав связи фактически неизменяем, но проверка дёшева, а корректность не
// должна зависеть от свежести кэша. Отсутствующая связь и чужая связь
// неразличимы для вызывающего (анти-перебор relationship_id); сам факт отказа
// логируется как возможное прощупывание.
func (s *Service) Authorize(ctx context.Context, relationshipID, callerID uuid.UUID, callerRole models.Role) (*models.Relationship, error) {
	const op = "service.chat.Authorize"

	lg := log.From(ctx)

	rel, err := s.docs.RelationshipByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("chat_access_denied",
				slog.String("op", op),
				slog.String("relationship_id", relationshipID.String()),
				slog.String("caller_id", callerID.String()),
				slog.String("reason", "relationship_missing"),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !rel.Participant(callerID, callerRole) {
		lg.Warn("chat_access_denied",
			slog.String("op", op),
			slog.String("relationship_id", relationshipID.String()),
			slog.String("caller_id", callerID.String()),
			slog.String("caller_role", string(callerRole)),
			slog.String("reason", "not_participant"),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	return rel, nil
}

// SendMessage сохраняет сообщение диалога после проверки участия.
// Возвращённая копия — единица истины для realtime-рассылки: шлюз никогда не
// фабрикует сообщения сам, он транслирует только то, что сохранено здесь.
func (s *Service) SendMessage(ctx context.Context, relationshipID, senderID uuid.UUID, senderRole models.Role, body string) (*models.Message, error) {
	const op = "service.chat.SendMessage"

	if _, err := s.Authorize(ctx, relationshipID, senderID, senderRole); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyMessage)
	}

	msg, err := s.docs.InsertMessage(ctx, &models.Message{
		RelationshipID: relationshipID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Body:           body,
		IsRead:         false,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return msg, nil
}

// History возвращает страницу истории диалога (по возрастанию created_at)
// и полное количество сообщений.
//
// Побочный эффект: все непрочитанные сообщения второй стороны помечаются
// прочитанными — просмотр истории и есть подтверждение прочтения.
func (s *Service) History(ctx context.Context, relationshipID, callerID uuid.UUID, callerRole models.Role, p models.HistoryParams) (*models.HistoryPage, error) {
	const op = "service.chat.History"

	if _, err := s.Authorize(ctx, relationshipID, callerID, callerRole); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.docs.MarkMessagesRead(ctx, relationshipID, callerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, err := s.docs.HistoryPage(ctx, relationshipID, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// UnreadCount считает непрочитанные чужие сообщения по всем связям identity.
func (s *Service) UnreadCount(ctx context.Context, callerID uuid.UUID) (int64, error) {
	const op = "service.chat.UnreadCount"

	count, err := s.docs.UnreadCount(ctx, callerID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}
