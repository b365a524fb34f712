package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/service"
)

type messageResponse struct {
	ID             string    `json:"id"`
	RelationshipID string    `json:"relationship_id"`
	SenderID       string    `json:"sender_id"`
	SenderRole     string    `json:"sender_role"`
	Body           string    `json:"body"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func messageToResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		RelationshipID: m.RelationshipID.String(),
		SenderID:       m.SenderID.String(),
		SenderRole:     string(m.SenderRole),
		Body:           m.Body,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}

type historyResponse struct {
	Items      []messageResponse `json:"items"`
	TotalCount int64             `json:"total_count"`
	Page       int32             `json:"page"`
	PageSize   int32             `json:"page_size"`
}

// History — GET /chat/{relationship_id}?page=&page_size=.
// Просмотр истории помечает непрочитанные сообщения второй стороны прочитанными.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(r.Context())
	if !ok {
		WriteError(w, r, service.ErrInvalidToken)
		return
	}

	relID, err := uuid.Parse(chi.URLParam(r, "relationship_id"))
	if err != nil {
		WriteError(w, r, fmt.Errorf("%w: relationship_id", errInvalidArgument))
		return
	}

	params, err := historyParamsFromQuery(r, h.chat)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	page, err := h.svc.History(r.Context(), relID, c.ID, c.Role, params)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	items := make([]messageResponse, 0, len(page.Items))
	for _, m := range page.Items {
		items = append(items, messageToResponse(m))
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

type sendMessageRequest struct {
	RelationshipID string `json:"relationship_id"`
	Body           string `json:"body"`
}

// SendMessage — POST /chat: REST-дубль realtime-команды send_message для
// клиентов без живого соединения. Realtime-подписчики комнаты получают
// сохранённое сообщение тем же событием new_message.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(r.Context())
	if !ok {
		WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in sendMessageRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	relID, err := uuid.Parse(in.RelationshipID)
	if err != nil {
		WriteError(w, r, fmt.Errorf("%w: relationship_id", errInvalidArgument))
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), relID, c.ID, c.Role, in.Body)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.gw.BroadcastMessage(msg)

	writeJSON(w, http.StatusCreated, messageToResponse(*msg))
}

type unreadResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// UnreadCount — GET /chat/unread: бейдж непрочитанного по всем диалогам.
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(r.Context())
	if !ok {
		WriteError(w, r, service.ErrInvalidToken)
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), c.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, unreadResponse{UnreadCount: count})
}

// historyParamsFromQuery разбирает пагинацию; пределы задаёт конфигурация чата.
func historyParamsFromQuery(r *http.Request, cfg config.ChatConfig) (models.HistoryParams, error) {
	params := models.HistoryParams{Page: 1, PageSize: cfg.DefaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || page < 1 {
			return params, fmt.Errorf("%w: page", errInvalidArgument)
		}
		params.Page = int32(page)
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || size < 1 {
			return params, fmt.Errorf("%w: page_size", errInvalidArgument)
		}
		params.PageSize = int32(size)
	}

	if params.PageSize > cfg.MaxPageSize {
		params.PageSize = cfg.MaxPageSize
	}

	return params, nil
}
