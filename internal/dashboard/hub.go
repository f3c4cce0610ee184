package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

const writeTimeout = 5 * time.Second

// ModelInfoFunc reports the active model for the initial client state.
type ModelInfoFunc func() service.ModelInfo

// Hub manages WebSocket clients, event broadcasting, and stats.
type Hub struct {
	events    *RingBuffer
	stats     *Stats
	modelInfo ModelInfoFunc
	logger    zerolog.Logger
	nextID    atomic.Uint64

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a new dashboard hub. modelInfo may be nil.
func NewHub(bufferSize int, modelInfo ModelInfoFunc, logger zerolog.Logger) *Hub {
	return &Hub{
		events:    NewRingBuffer(bufferSize),
		stats:     NewStats(),
		modelInfo: modelInfo,
		logger:    logger,
		clients:   make(map[*websocket.Conn]struct{}),
	}
}

// OnEvent is the observer callback to register with the service.
func (h *Hub) OnEvent(se service.Event) {
	event := &DashboardEvent{
		ID:    fmt.Sprintf("evt-%d", h.nextID.Add(1)),
		Event: se,
	}

	h.events.Add(event)
	h.stats.Record(event)

	h.broadcast(WSMessage{Type: "event", Payload: event})
}

// Register adds a WebSocket client and sends it the initial state.
func (h *Hub) Register(ctx context.Context, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	state := InitialState{
		Events: h.events.All(),
		Stats:  h.stats.Snapshot(),
	}
	if h.modelInfo != nil {
		info := h.modelInfo()
		state.Model = &info
	}

	data, err := json.Marshal(WSMessage{Type: "initial_state", Payload: state})
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
		h.logger.Debug().Err(err).Msg("initial state write failed")
	}
}

// Unregister removes a WebSocket client.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends a message to all connected clients. Clients that fail a
// write are dropped.
func (h *Hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("encoding dashboard message")
		return
	}

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.Unregister(c)
		}
	}
}

// StartStatsBroadcast pushes stats snapshots to all clients every interval
// until ctx is done.
func (h *Hub) StartStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(WSMessage{Type: "stats_update", Payload: h.stats.Snapshot()})
		}
	}
}

// Events returns the ring buffer (for API handlers).
func (h *Hub) Events() *RingBuffer {
	return h.events
}

// StatsSnapshot returns a snapshot of accumulated stats.
func (h *Hub) StatsSnapshot() *StatsSnapshot {
	return h.stats.Snapshot()
}
