package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ZoneSentinel/internal/model"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// OverlayMessage is pushed to websocket clients for every published snapshot.
type OverlayMessage struct {
	Symbol      string           `json:"symbol"`
	Timeframe   model.Timeframe  `json:"timeframe"`
	Source      model.DataSource `json:"source"`
	Overlays    []model.Overlay  `json:"overlays"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshot overlays out to websocket clients. Each client has its
// own writer goroutine; a client that falls behind or fails a write is dropped.
type Hub struct {
	clients map[*client]struct{}
	lock    sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Run broadcasts every snapshot from updates until ctx is cancelled or
// updates is closed, then disconnects all clients.
func (h *Hub) Run(ctx context.Context, updates <-chan *model.Snapshot) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			msg, err := json.Marshal(newOverlayMessage(snap))
			if err != nil {
				log.Printf("[ERROR] encode overlay message: %v", err)
				continue
			}
			h.Broadcast(msg)
		}
	}
}

func newOverlayMessage(snap *model.Snapshot) OverlayMessage {
	return OverlayMessage{
		Symbol:      snap.Symbol,
		Timeframe:   snap.Timeframe,
		Source:      snap.Source,
		Overlays:    snap.Overlays,
		GeneratedAt: snap.GeneratedAt,
	}
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg []byte) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[WARN] websocket client %s too slow, dropping", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] websocket upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards client frames and notices disconnects.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.lock.Lock()
	h.removeLocked(c)
	h.lock.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}
