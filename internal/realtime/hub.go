// realtime реализует шлюз живых событий чата: реестр соединений, комнаты по
// relationship_id и fan-out событий подписчикам.
//
// Модель доставки — fire-and-forget: у каждого соединения буферизованный канал
// исходящих событий; медленный или пропавший подписчик просто теряет живое
// событие и восстанавливает состояние через историю диалога, которая остаётся
// источником истины.
package realtime

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"

	"github.com/avdonina/clinic-backend/internal/models"
)

// Исходящие типы событий.
const (
	EventConnected      = "connected"
	EventNewMessage     = "new_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventSendError      = "send_error"
)

// Event — событие, доставляемое соединению.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Conn — одно долгоживущее соединение аутентифицированного клиента.
// Жизненный цикл: Register (после проверки access-токена) -> join/leave комнат
// -> Unregister. Обработчики событий одного соединения выполняются
// последовательно; соединения между собой конкурентны.
type Conn struct {
	ID         string
	IdentityID uuid.UUID
	Role       models.Role

	events chan Event
	done   chan struct{}
	rooms  map[uuid.UUID]struct{}
}

// Events — канал исходящих событий соединения. Никогда не закрывается:
// завершение сигнализируется через Done, иначе команда, пришедшая параллельно
// с обрывом потока, упёрлась бы в send на закрытом канале.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Done закрывается в Unregister; читающий цикл обязан выбирать между
// Done и Events.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// send кладёт событие в буфер соединения, не блокируясь.
// После Unregister события молча отбрасываются: отключившееся соединение
// просто перестаёт получать живые события.
func (c *Conn) send(evt Event) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.events <- evt:
	default:
		// Подписчик не успевает — событие отбрасывается.
	}
}

// Hub — реестр активных соединений и комнат.
// Явный объект без глобального состояния: внедряется в обработчики при сборке.
type Hub struct {
	mu     sync.RWMutex
	buffer int
	conns  map[string]*Conn
	rooms  map[uuid.UUID]map[string]*Conn
}

// NewHub создаёт пустой реестр. buffer — размер канала событий соединения.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}

	return &Hub{
		buffer: buffer,
		conns:  make(map[string]*Conn),
		rooms:  make(map[uuid.UUID]map[string]*Conn),
	}
}

// Register регистрирует аутентифицированное соединение и возвращает его.
func (h *Hub) Register(identityID uuid.UUID, role models.Role) *Conn {
	conn := &Conn{
		ID:         genConnID(),
		IdentityID: identityID,
		Role:       role,
		events:     make(chan Event, h.buffer),
		done:       make(chan struct{}),
		rooms:      make(map[uuid.UUID]struct{}),
	}

	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()

	return conn
}

// Unregister снимает соединение с учёта: выход из всех комнат и сигнал Done.
// Канал событий остаётся открытым — команды, пришедшие параллельно с обрывом
// (PushEvent успел получить conn до teardown), безопасно гаснут в send.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}

	for roomID := range conn.rooms {
		h.leaveLocked(roomID, conn)
	}

	delete(h.conns, connID)
	close(conn.done)
}

// Conn возвращает зарегистрированное соединение по ID.
func (h *Hub) Conn(connID string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.conns[connID]
	return conn, ok
}

// Join присоединяет соединение к комнате. Комната создаётся лениво.
func (h *Hub) Join(roomID uuid.UUID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]*Conn)
		h.rooms[roomID] = room
	}

	room[connID] = conn
	conn.rooms[roomID] = struct{}{}
}

// Leave выводит соединение из комнаты; пустая комната удаляется.
func (h *Hub) Leave(roomID uuid.UUID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}

	h.leaveLocked(roomID, conn)
}

func (h *Hub) leaveLocked(roomID uuid.UUID, conn *Conn) {
	if room, ok := h.rooms[roomID]; ok {
		delete(room, conn.ID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}

	delete(conn.rooms, roomID)
}

// Broadcast рассылает событие всем участникам комнаты, включая отправителя.
func (h *Hub) Broadcast(roomID uuid.UUID, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.rooms[roomID] {
		conn.send(evt)
	}
}

// BroadcastExcept рассылает событие всем участникам комнаты, кроме указанного
// соединения (типично — эфемерные сигналы typing).
func (h *Hub) BroadcastExcept(roomID uuid.UUID, exceptConnID string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.rooms[roomID] {
		if id == exceptConnID {
			continue
		}

		conn.send(evt)
	}
}

// genConnID — криптографически стойкий hex-идентификатор соединения (32 символа).
func genConnID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
