package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host/wirehost"
	"github.com/vango-dev/fiber/pkg/protocol"
)

const (
	// DefaultWriteTimeout bounds a single frame write to a client.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultClientQueue is how many frames may wait for a slow client
	// before it is disconnected.
	DefaultClientQueue = 64
)

// StreamRecorder receives patch stream measurements.
type StreamRecorder interface {
	ObserveFrameSent(size int)
	SetClients(n int)
}

// client is one stream connection. Only its writer goroutine writes to
// conn; send is closed when the client is removed.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans patch frames out to WebSocket clients.
//
// Send never waits on the network: each client has its own queue drained
// by a writer goroutine, and a client whose queue is full is dropped.
// Frames are never skipped for a client that stays connected.
type Hub struct {
	clients  map[*client]struct{}
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
	recorder StreamRecorder
	timeout  time.Duration
	queue    int
}

var _ wirehost.Sink = (*Hub)(nil)

// NewHub creates a hub. recorder may be nil.
func NewHub(logger *slog.Logger, recorder StreamRecorder) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:   logger,
		recorder: recorder,
		timeout:  DefaultWriteTimeout,
		queue:    DefaultClientQueue,
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until
// the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.queue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.observeClients(n)
	h.logger.Debug("stream client connected", "remote", req.RemoteAddr, "clients", n)

	go h.writeLoop(c)

	// Clients only listen. Reading detects the disconnect, and any message
	// a client does send is answered with an error frame.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		h.reject(c)
	}

	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.timeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			h.logger.Debug("dropping stream client", "error", err)
			h.remove(c)
			return
		}
		if h.recorder != nil {
			h.recorder.ObserveFrameSent(len(frame))
		}
	}
}

// Send queues a frame for every connected client as a binary message.
// Clients whose queue is full are dropped.
func (h *Hub) Send(frame []byte) error {
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.enqueue(frame) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow stream client", "queued", h.queue)
		h.remove(c)
	}
	return nil
}

// enqueue must be called with the hub lock held, so send is still open.
func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (h *Hub) reject(c *client) {
	fe := errors.New("E404")
	frame, err := protocol.EncodeError(protocol.ErrorFrame{Code: fe.Code, Message: fe.Message})
	if err != nil {
		return
	}
	h.mu.RLock()
	_, ok := h.clients[c]
	if ok {
		c.enqueue(frame)
	}
	h.mu.RUnlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.observeClients(n)
	}
}

func (h *Hub) observeClients(n int) {
	if h.recorder != nil {
		h.recorder.SetClients(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
	h.observeClients(0)
}
