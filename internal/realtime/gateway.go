package realtime

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/service"
	"github.com/avdonina/clinic-backend/pkg/log"
)

// Входящие типы команд.
const (
	CommandJoinRoom    = "join_room"
	CommandLeaveRoom   = "leave_room"
	CommandSendMessage = "send_message"
	CommandTyping      = "typing"
	CommandStopTyping  = "stop_typing"
)

// Коды ошибок в событиях send_error.
const (
	ReasonAccessDenied   = "access_denied"
	ReasonEmptyMessage   = "empty_message"
	ReasonUnknownCommand = "unknown_command"
	ReasonBadCommand     = "bad_command"
	ReasonInternal       = "internal"
)

// Command — команда клиента живого канала.
type Command struct {
	Type           string `json:"type"`
	RelationshipID string `json:"relationship_id"`
	Body           string `json:"body,omitempty"`
}

// MessagePayload — полезная нагрузка события new_message.
type MessagePayload struct {
	ID             string `json:"id"`
	RelationshipID string `json:"relationship_id"`
	SenderID       string `json:"sender_id"`
	SenderRole     string `json:"sender_role"`
	Body           string `json:"body"`
	CreatedAt      string `json:"created_at"`
}

// TypingPayload — полезная нагрузка событий user_typing / user_stop_typing.
type TypingPayload struct {
	RelationshipID string `json:"relationship_id"`
	IdentityID     string `json:"identity_id"`
}

// ErrorPayload — полезная нагрузка события send_error.
type ErrorPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// Gateway диспетчеризует команды живого канала поверх доменного сервиса.
//
// Правила доставки: ошибки команды возвращаются событием send_error только
// отправителю; сохранённое сообщение рассылается всей комнате, включая
// отправителя (единое подтверждение доставки); сигналы typing эфемерны и
// уходят остальным участникам комнаты без обращения к сервису.
type Gateway struct {
	service *service.Service
	hub     *Hub
}

// NewGateway собирает шлюз поверх сервиса и реестра соединений.
func NewGateway(service *service.Service, hub *Hub) *Gateway {
	return &Gateway{
		service: service,
		hub:     hub,
	}
}

// Hub возвращает реестр соединений шлюза.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Handle обрабатывает одну команду соединения. Контракт канала не рвётся из-за
// доменных ошибок: любая проблема превращается в send_error отправителю.
func (g *Gateway) Handle(ctx context.Context, conn *Conn, cmd Command) {
	switch cmd.Type {
	case CommandJoinRoom:
		g.handleJoin(ctx, conn, cmd)
	case CommandLeaveRoom:
		g.handleLeave(ctx, conn, cmd)
	case CommandSendMessage:
		g.handleSend(ctx, conn, cmd)
	case CommandTyping:
		g.handleTyping(ctx, conn, cmd, EventUserTyping)
	case CommandStopTyping:
		g.handleTyping(ctx, conn, cmd, EventUserStopTyping)
	default:
		conn.send(Event{Type: EventSendError, Payload: ErrorPayload{
			Reason:  ReasonUnknownCommand,
			Message: "unknown command type",
		}})
	}
}

// handleJoin проверяет членство в связи перед подпиской на комнату: вход в
// комнату подчиняется той же проверке доступа, что и отправка сообщений.
func (g *Gateway) handleJoin(ctx context.Context, conn *Conn, cmd Command) {
	relID, ok := g.parseRelationshipID(conn, cmd)
	if !ok {
		return
	}

	if _, err := g.service.Authorize(ctx, relID, conn.IdentityID, conn.Role); err != nil {
		g.sendError(ctx, conn, err)
		return
	}

	g.hub.Join(relID, conn.ID)

	log.From(ctx).Debug("realtime_room_joined",
		slog.String("conn_id", conn.ID),
		slog.String("relationship_id", relID.String()),
	)
}

func (g *Gateway) handleLeave(ctx context.Context, conn *Conn, cmd Command) {
	relID, ok := g.parseRelationshipID(conn, cmd)
	if !ok {
		return
	}

	g.hub.Leave(relID, conn.ID)

	log.From(ctx).Debug("realtime_room_left",
		slog.String("conn_id", conn.ID),
		slog.String("relationship_id", relID.String()),
	)
}

func (g *Gateway) handleSend(ctx context.Context, conn *Conn, cmd Command) {
	relID, ok := g.parseRelationshipID(conn, cmd)
	if !ok {
		return
	}

	msg, err := g.service.SendMessage(ctx, relID, conn.IdentityID, conn.Role, cmd.Body)
	if err != nil {
		g.sendError(ctx, conn, err)
		return
	}

	g.BroadcastMessage(msg)
}

// BroadcastMessage рассылает сохранённое сообщение комнате его связи, включая
// отправителя. На этот же метод опирается REST-отправка: подписчики комнаты
// получают new_message независимо от канала, которым сообщение пришло.
func (g *Gateway) BroadcastMessage(msg *models.Message) {
	g.hub.Broadcast(msg.RelationshipID, Event{Type: EventNewMessage, Payload: MessagePayload{
		ID:             msg.ID,
		RelationshipID: msg.RelationshipID.String(),
		SenderID:       msg.SenderID.String(),
		SenderRole:     string(msg.SenderRole),
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}})
}

// handleTyping релеит эфемерный сигнал остальным участникам комнаты. Сигнал не
// персистится и не проверяется сервисом: соединение попадает в комнату только
// через guard в handleJoin.
func (g *Gateway) handleTyping(ctx context.Context, conn *Conn, cmd Command, eventType string) {
	relID, ok := g.parseRelationshipID(conn, cmd)
	if !ok {
		return
	}

	g.hub.BroadcastExcept(relID, conn.ID, Event{Type: eventType, Payload: TypingPayload{
		RelationshipID: relID.String(),
		IdentityID:     conn.IdentityID.String(),
	}})
}

func (g *Gateway) parseRelationshipID(conn *Conn, cmd Command) (uuid.UUID, bool) {
	relID, err := uuid.Parse(strings.TrimSpace(cmd.RelationshipID))
	if err != nil {
		conn.send(Event{Type: EventSendError, Payload: ErrorPayload{
			Reason:  ReasonBadCommand,
			Message: "relationship_id must be a valid UUID",
		}})

		return uuid.Nil, false
	}

	return relID, true
}

// sendError переводит доменную ошибку в событие send_error отправителю.
func (g *Gateway) sendError(ctx context.Context, conn *Conn, err error) {
	payload := ErrorPayload{Reason: ReasonInternal}

	switch {
	case errors.Is(err, service.ErrAccessDenied), errors.Is(err, service.ErrNotFound):
		payload = ErrorPayload{Reason: ReasonAccessDenied, Message: "access denied"}
	case errors.Is(err, service.ErrEmptyMessage):
		payload = ErrorPayload{Reason: ReasonEmptyMessage, Message: "message body is empty"}
	default:
		log.From(ctx).Error("realtime_command_failed",
			slog.String("conn_id", conn.ID),
			slog.String("err", err.Error()),
		)
	}

	conn.send(Event{Type: EventSendError, Payload: payload})
}
