package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avdonina/clinic-backend/internal/realtime"
	"github.com/avdonina/clinic-backend/internal/service"
)

// Stream — GET /realtime/stream: долгоживущий SSE-канал исходящих событий.
//
// Соединение регистрируется в hub после той же проверки access-токена, что и
// REST-запросы; первым уходит событие connected с conn_id — его клиент
// использует в POST /realtime/{conn_id}/events для команд. Обрыв соединения
// (уход клиента, таймаут прокси) снимает регистрацию и выводит из всех комнат.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(r.Context())
	if !ok {
		WriteError(w, r, service.ErrInvalidToken)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	conn := h.gw.Hub().Register(c.ID, c.Role)
	defer h.gw.Hub().Unregister(conn.ID)

	if err := writeSSE(w, realtime.Event{
		Type:    realtime.EventConnected,
		Payload: map[string]string{"conn_id": conn.ID},
	}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.Done():
			return
		case evt := <-conn.Events():
			if err := writeSSE(w, evt); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, evt realtime.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// PushEvent — POST /realtime/{conn_id}/events: команда живого канала
// (join_room, leave_room, send_message, typing, stop_typing).
//
// Команды принимаются только от владельца соединения: conn_id, открытый одним
// identity, нельзя использовать с токеном другого. Результат команды (включая
// send_error) уходит в SSE-поток; сам POST отвечает 202.
func (h *Handlers) PushEvent(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(r.Context())
	if !ok {
		WriteError(w, r, service.ErrInvalidToken)
		return
	}

	conn, ok := h.gw.Hub().Conn(chi.URLParam(r, "conn_id"))
	if !ok {
		WriteError(w, r, service.ErrNotFound)
		return
	}

	if conn.IdentityID != c.ID {
		WriteError(w, r, service.ErrAccessDenied)
		return
	}

	var cmd realtime.Command
	if err := decodeStrict(r, &cmd); err != nil {
		WriteError(w, r, err)
		return
	}

	h.gw.Handle(r.Context(), conn, cmd)

	w.WriteHeader(http.StatusAccepted)
}
