package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is a single supervisor lifecycle transition fanned out to every
// connected admin dashboard client.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Mount     string    `json:"mount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans supervisor events out over websocket connections. Trimmed
// from the register/unregister/broadcast triptych of a client/server hub:
// there is no per-client unicast and no persisted last-seen state, since an
// admin dashboard client is purely a read-only observer.
type EventHub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]chan []byte

	broadcast chan []byte
	stop      chan struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[uuid.UUID]chan []byte),
		broadcast: make(chan []byte, 256),
		stop:      make(chan struct{}),
	}
}

// Run drains the broadcast channel and fans messages to every registered
// client. It blocks until Stop is called.
func (h *EventHub) Run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case <-h.stop:
			return
		}
	}
}

func (h *EventHub) Stop() { close(h.stop) }

func (h *EventHub) fanOut(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			slog.Warn("Admin event client buffer full, dropping message", "client", id)
		}
	}
}

// Emit publishes a supervisor event of the given kind. The supervisor emits
// only "relay_stopped".
func (h *EventHub) Emit(kind, mount string) {
	ev := Event{ID: uuid.New(), Kind: kind, Mount: mount, Timestamp: time.Now()}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("Admin event broadcast buffer full, dropping event", "kind", kind)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Admin dashboard is same-origin; cross-origin upgrades are rejected by
	// the default gorilla CheckOrigin unless explicitly relaxed here.
}

// ServeWS upgrades an authenticated admin request to a websocket and streams
// events to it until the connection closes.
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Admin event websocket upgrade failed", "error", err)
		return
	}

	id := uuid.New()
	ch := make(chan []byte, 32)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()

	slog.Info("Admin event client connected", "client", id)

	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		conn.Close()
		slog.Info("Admin event client disconnected", "client", id)
	}()

	go func() {
		// Drain and discard any client-sent frames (pings, close) so the
		// read side stays serviced; we don't accept commands over this feed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for msg := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
