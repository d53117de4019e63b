package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is handled by the outer handler.
		return true
	},
}

// wsHub maintains the set of connected clients and fans audit-event frames
// out to them. A client whose send buffer is full is disconnected rather
// than ever back-pressuring the event pump.
type wsHub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]struct{}
	register   chan *wsClient
	unregister chan *wsClient
	frames     chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.SugaredLogger
}

func newWSHub(logger *zap.SugaredLogger) *wsHub {
	return &wsHub{
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		frames:     make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// stop disconnects every client and makes run return. Safe to call more
// than once.
func (h *wsHub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *wsHub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Infow("ws_connected", "remote", c.conn.RemoteAddr().String(), "total", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Infow("ws_disconnected", "total", n)

		case frame := <-h.frames:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// broadcast queues a frame for every connected client, dropping it if the
// hub itself is congested.
func (h *wsHub) broadcast(frame []byte) {
	select {
	case h.frames <- frame:
	default:
		h.logger.Warnw("ws_frame_dropped")
	}
}

func (h *wsHub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("ws_upgrade", "err", err)
		return
	}
	c := &wsClient{hub: h, conn: conn, send: make(chan []byte, 64)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

type wsClient struct {
	hub  *wsHub
	conn *websocket.Conn
	send chan []byte
}

// readPump drains inbound frames (the stream is one-way) and notices
// disconnects.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
