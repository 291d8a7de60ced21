package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rental-service/internal/observability"
)

const wsRoutingKey = "ws_events.presence"

type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks the live connections of each user. Delivery is best-effort:
// a user with no connection simply misses the push.
type Hub struct {
	clients map[int64]map[*websocket.Conn]*client
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*websocket.Conn]*client)}
}

// AddClient registers a connection for a user.
func (h *Hub) AddClient(userID int64, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]*client)
	}
	h.clients[userID][conn] = &client{conn: conn, info: info}
}

// RemoveClient forgets a connection.
func (h *Hub) RemoveClient(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// PushToUsers sends event to every connection of the given users. A failed
// write closes the connection; its read loop reports the error and disconnect.
func (h *Hub) PushToUsers(userIDs []int64, event any) {
	targets := h.snapshot(userIDs)
	if len(targets) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	for _, c := range targets {
		if c.conn == nil {
			continue
		}
		if err := c.write(payload); err != nil {
			log.Printf("websocket write error user_id=%d conn_id=%s: %v", c.info.UserID, c.info.ConnID, err)
			c.conn.Close()
			h.RemoveClient(c.info.UserID, c.conn)
			continue
		}
		observability.IncWSEvent("push")
	}
}

func (h *Hub) snapshot(userIDs []int64) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[int64]struct{}, len(userIDs))
	var targets []*client
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, c := range h.clients[id] {
			targets = append(targets, c)
		}
	}
	return targets
}

func wsEnvelope(event string, info ConnInfo, reason string) observability.EventEnvelope {
	return observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Headers:   observability.BuildHeaders(info.RequestID, info.TraceID),
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}
}
