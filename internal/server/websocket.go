package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A receive request carries 50
	// pulses, so this leaves ample room.
	maxMessageSize = 8192

	// Outbound messages buffered per client before broadcasts are dropped
	sendBuffer = 32
)

// conn is one WebSocket client of the hub.
type conn struct {
	ws         *websocket.Conn
	remoteAddr string
	send       chan []byte
}

// Hub tracks connected clients and fans broadcasts out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*conn]struct{}
	closed  bool
	metrics *Metrics
}

func newHub(m *Metrics) *Hub {
	return &Hub{clients: make(map[*conn]struct{}), metrics: m}
}

// add registers c. It returns false once closeAll has run.
func (h *Hub) add(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.connections.Inc()
	return true
}

// remove unregisters c and closes its send channel. Nothing sends on
// c.send after this returns.
func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.metrics.connections.Dec()
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues resp for every client. A client whose buffer is full
// misses the message.
func (h *Hub) Broadcast(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error("Failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.metrics.broadcastDrops.Inc()
			logging.Warn("Dropping broadcast for slow client",
				zap.String("remote_addr", c.remoteAddr),
			)
		}
	}
}

// reply queues resp for c alone.
func (h *Hub) reply(c *conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error("Failed to marshal response", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		logging.Warn("Dropping response for slow client",
			zap.String("remote_addr", c.remoteAddr),
		)
	}
}

// closeAll sends a close frame to every client and refuses new ones. Their
// read loops then end and unregister them.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range h.clients {
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
}

// readLoop reads requests until the peer goes away, handing each to
// handle. It owns unregistering c.
func (h *Hub) readLoop(c *conn, handle func(*conn, []byte)) {
	defer func() {
		h.remove(c)
		_ = c.ws.Close()
		logging.LogConnection(c.remoteAddr, "websocket_closed")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				logging.Info("Connection closed by client",
					zap.String("remote_addr", c.remoteAddr),
					zap.Int("code", closeErr.Code),
				)
			} else {
				logging.Info("Connection closed or error reading message",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		if msgType != websocket.TextMessage {
			logging.Warn("Ignoring non-text WebSocket message",
				zap.String("remote_addr", c.remoteAddr),
				zap.Int("type", msgType),
			)
			continue
		}

		handle(c, data)
	}
}

// writeLoop drains c.send to the socket and keeps the connection alive
// with pings. It ends when c.send is closed or a write fails.
func (h *Hub) writeLoop(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug("Write failed",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
				return
			}
			logging.LogWebSocketMessage(c.remoteAddr, "sent", "", data)

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
