// Package ws streams ranking updates to websocket clients, one channel of
// updates per tenant.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/okian/redzone/internal/domain/types"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	sendBufSize  = 16
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// origin policy belongs to the reverse proxy
	CheckOrigin: func(*http.Request) bool { return true },
}

// Message is the envelope sent to clients.
type Message struct {
	Event string              `json:"event"`
	Data  types.RankingUpdate `json:"data"`
}

// Hub fans ranking updates out to the clients of each tenant.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	last    map[string][]byte
	closed  bool

	log logger.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub.
func New() *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		last:    make(map[string][]byte),
		log:     logger.Get().Named("ws"),
	}
}

// Publish sends an update to every client of a tenant. Clients whose buffer
// is full are dropped.
func (h *Hub) Publish(tenant string, u types.RankingUpdate) {
	data, err := json.Marshal(Message{Event: "ranking", Data: u})
	if err != nil {
		h.log.Error(context.Background(), "encode ranking update", logger.Error(err))
		return
	}

	// sends happen under the lock so no client's channel can be closed mid-send
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last[tenant] = data
	for c := range h.clients[tenant] {
		select {
		case c.send <- data:
		default:
			h.dropLocked(tenant, c)
		}
	}
	metrics.UpdateWSClients(h.countLocked())
}

// ServeTenant upgrades the request and streams the tenant's updates until the
// connection closes. The latest update, if any, is sent on connect.
func (h *Hub) ServeTenant(w http.ResponseWriter, r *http.Request, tenant string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBufSize)}
	if !h.register(tenant, c) {
		_ = conn.Close()
		return
	}
	defer h.unregister(tenant, c)

	go c.writePump()
	c.readPump()
}

// Forget disconnects every client of a tenant.
func (h *Hub) Forget(tenant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[tenant] {
		close(c.send)
	}
	delete(h.clients, tenant)
	delete(h.last, tenant)
	metrics.UpdateWSClients(h.countLocked())
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// Close disconnects everyone and rejects new clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for tenant, cs := range h.clients {
		for c := range cs {
			close(c.send)
		}
		delete(h.clients, tenant)
	}
	metrics.UpdateWSClients(0)
}

func (h *Hub) countLocked() int {
	n := 0
	for _, cs := range h.clients {
		n += len(cs)
	}
	return n
}

func (h *Hub) register(tenant string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.clients[tenant] == nil {
		h.clients[tenant] = make(map[*client]struct{})
	}
	h.clients[tenant][c] = struct{}{}
	if data, ok := h.last[tenant]; ok {
		c.send <- data
	}
	metrics.UpdateWSClients(h.countLocked())
	return true
}

func (h *Hub) unregister(tenant string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(tenant, c)
	metrics.UpdateWSClients(h.countLocked())
}

// dropLocked removes c and closes its send channel once. h.mu must be held.
func (h *Hub) dropLocked(tenant string, c *client) {
	if _, ok := h.clients[tenant][c]; !ok {
		return
	}
	delete(h.clients[tenant], c)
	close(c.send)
	if len(h.clients[tenant]) == 0 {
		delete(h.clients, tenant)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only handles control frames; it returns when the peer goes away.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
