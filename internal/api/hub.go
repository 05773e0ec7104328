package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"defi-cohort-lab/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type    string      `json:"type"` // "run.updated" or "ping"
	Payload interface{} `json:"payload"`
}

// MessageRunUpdated is sent whenever a run changes status.
const MessageRunUpdated = "run.updated"

type client struct {
	send chan Message
}

// Hub fans run updates out to connected websocket clients.
// Slow clients drop messages rather than block the pipeline.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, clients: make(map[*client]struct{})}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastRun pushes run to every client.
func (h *Hub) BroadcastRun(run *domain.PipelineRun) {
	msg := Message{Type: MessageRunUpdated, Payload: run}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("websocket client buffer full, dropping message")
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// HandleWebSocket upgrades the connection and streams run updates until the
// client disconnects. Client messages are read only to detect close.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	c := &client{send: make(chan Message, sendBuffer)}
	h.register(c)
	h.logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeMessages(conn, c)
		// Unblocks the reader when the writer fails first.
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
	<-done
	h.logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// writeMessages drains the client queue and keeps the connection alive with pings.
func (h *Hub) writeMessages(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
