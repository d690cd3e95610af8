package realtime

import (
	"sync"

	"go.uber.org/zap"

	"stagecast/internal/core/domain"
)

// Sender delivers one event to a single connection. Implementations must not
// block the caller: a connection that cannot keep up reports an error instead
// of stalling the hub.
type Sender interface {
	Send(event string, payload interface{}) error
	Close()
}

// BroadcastMetrics receives fan-out counters from the hub.
type BroadcastMetrics interface {
	RecordBroadcast(event string, recipients int)
	RecordDroppedSend(event string)
	SetActiveConnections(n int)
}

type member struct {
	userID domain.UserID
	sender Sender
	rooms  map[domain.StreamID]struct{}
}

// Hub is the connection registry and room fan-out for the realtime layer.
// All membership state lives behind one RWMutex; broadcasts snapshot the
// recipient list under the read lock and deliver outside it so one slow
// connection never delays the others.
type Hub struct {
	mu      sync.RWMutex
	conns   map[domain.ConnID]*member
	rooms   map[domain.StreamID]map[domain.ConnID]struct{}
	logger  *zap.Logger
	metrics BroadcastMetrics
}

func NewHub(logger *zap.Logger, metrics BroadcastMetrics) *Hub {
	return &Hub{
		conns:   make(map[domain.ConnID]*member),
		rooms:   make(map[domain.StreamID]map[domain.ConnID]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Hub) Register(connID domain.ConnID, userID domain.UserID, sender Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[connID] = &member{
		userID: userID,
		sender: sender,
		rooms:  make(map[domain.StreamID]struct{}),
	}

	if h.metrics != nil {
		h.metrics.SetActiveConnections(len(h.conns))
	}
}

// Unregister removes the connection from every room it joined and returns
// the rooms it was a member of.
func (h *Hub) Unregister(connID domain.ConnID) []domain.StreamID {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, exists := h.conns[connID]
	if !exists {
		return nil
	}

	left := make([]domain.StreamID, 0, len(m.rooms))
	for streamID := range m.rooms {
		left = append(left, streamID)
		h.dropFromRoom(streamID, connID)
	}

	delete(h.conns, connID)
	m.sender.Close()

	if h.metrics != nil {
		h.metrics.SetActiveConnections(len(h.conns))
	}

	return left
}

// Join is idempotent: joining a room twice leaves a single membership.
func (h *Hub) Join(connID domain.ConnID, streamID domain.StreamID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, exists := h.conns[connID]
	if !exists {
		return false
	}

	if _, already := m.rooms[streamID]; already {
		return false
	}

	m.rooms[streamID] = struct{}{}
	if h.rooms[streamID] == nil {
		h.rooms[streamID] = make(map[domain.ConnID]struct{})
	}
	h.rooms[streamID][connID] = struct{}{}
	return true
}

func (h *Hub) Leave(connID domain.ConnID, streamID domain.StreamID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, exists := h.conns[connID]
	if !exists {
		return false
	}
	if _, joined := m.rooms[streamID]; !joined {
		return false
	}

	delete(m.rooms, streamID)
	h.dropFromRoom(streamID, connID)
	return true
}

// dropFromRoom must be called with the write lock held.
func (h *Hub) dropFromRoom(streamID domain.StreamID, connID domain.ConnID) {
	members := h.rooms[streamID]
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, streamID)
	}
}

func (h *Hub) RoomSize(streamID domain.StreamID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[streamID])
}

// Broadcast delivers the event to every connection currently in the room.
// An empty room is a no-op. Failed sends drop that member's copy only.
func (h *Hub) Broadcast(streamID domain.StreamID, event string, payload interface{}) {
	h.mu.RLock()
	recipients := make([]Sender, 0, len(h.rooms[streamID]))
	for connID := range h.rooms[streamID] {
		if m, exists := h.conns[connID]; exists {
			recipients = append(recipients, m.sender)
		}
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	for _, sender := range recipients {
		if err := sender.Send(event, payload); err != nil {
			if h.metrics != nil {
				h.metrics.RecordDroppedSend(event)
			}
			h.logger.Debug("dropped broadcast for slow connection",
				zap.String("stream_id", string(streamID)),
				zap.String("event", event))
		}
	}

	if h.metrics != nil {
		h.metrics.RecordBroadcast(event, len(recipients))
	}
}

// SendTo delivers an event to a single connection, for sender-only replies.
func (h *Hub) SendTo(connID domain.ConnID, event string, payload interface{}) {
	h.mu.RLock()
	m, exists := h.conns[connID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	if err := m.sender.Send(event, payload); err != nil {
		if h.metrics != nil {
			h.metrics.RecordDroppedSend(event)
		}
	}
}

// Shutdown closes every registered connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for connID, m := range h.conns {
		m.sender.Close()
		delete(h.conns, connID)
	}
	h.rooms = make(map[domain.StreamID]map[domain.ConnID]struct{})

	if h.metrics != nil {
		h.metrics.SetActiveConnections(0)
	}
}
