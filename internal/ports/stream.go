package ports

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/betbot/gokalshi/internal/services"
	"github.com/betbot/gokalshi/pkg/logger"
	"github.com/betbot/gokalshi/pkg/sigchan"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	streamPingInterval    = 30 * time.Second
	streamWriteTimeout    = 10 * time.Second
	streamRefreshInterval = 3 * time.Second
)

// Hub pushes status reports to websocket subscribers. The poller's update
// pulses are coalesced: a subscriber always receives the freshest report,
// never a backlog of stale ones.
type Hub struct {
	status  *services.Status
	updates *sigchan.Chan

	mu      sync.Mutex
	clients map[*streamClient]bool
}

func NewHub(status *services.Status, updates *sigchan.Chan) *Hub {
	return &Hub{
		status:  status,
		updates: updates,
		clients: make(map[*streamClient]bool),
	}
}

// Run consumes update pulses and broadcasts until ctx is canceled. A refresh
// ticker keeps subscribers current even when polling is quiet.
func (h *Hub) Run(ctx context.Context) {
	refresh := time.NewTicker(streamRefreshInterval)
	defer refresh.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.updates.C():
			h.broadcast()
		case <-refresh.C:
			if h.hasClients() {
				h.broadcast()
			}
		}
	}
}

func (h *Hub) hasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (h *Hub) broadcast() {
	payload, err := json.Marshal(h.status.Current())
	if err != nil {
		logger.Warnf("status stream marshal failed: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop this report, the next pulse brings a
			// fresher one anyway.
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (h *Hub) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("status stream upgrade failed: %v", err)
		return
	}

	client := &streamClient{conn: conn, send: make(chan []byte, 4)}

	// Seed the connection with the current report before any pulse arrives.
	if payload, err := json.Marshal(h.status.Current()); err == nil {
		client.send <- payload
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	logger.Infof("status stream client connected: %s", conn.RemoteAddr())

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) writePump(c *streamClient) {
	ticker := time.NewTicker(streamPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer closing; inbound frames are discarded.
func (h *Hub) readPump(c *streamClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(2 * streamPingInterval))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * streamPingInterval))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
