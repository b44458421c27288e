// internal/writer/ws/hub.go
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Event names pushed to UI clients.
const (
	EventReadChannels = "read_channels"
	EventLogEvent     = "log_event"
)

const writeWait = 5 * time.Second

// Event is the envelope of every message sent to a client.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub keeps the connected UI clients and broadcasts events to them.
// It is both a snapshot Writer and the notifier for log events.
//
// The last log_event is replayed to every client that connects after it was
// sent, so a notice raised before any UI attached is still seen.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	lastLog []byte // encoded log_event
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.L()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// UI is served from a different origin (desktop shell, dev server)
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger.With(zap.String("sink", "ws")),
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn}

	// c.mu is taken before the client becomes visible so the replay
	// reaches it ahead of any broadcast
	c.mu.Lock()
	h.mu.Lock()
	h.clients[c] = struct{}{}
	replay := h.lastLog
	h.mu.Unlock()

	if replay != nil {
		err = c.write(context.Background(), replay)
	}
	c.mu.Unlock()

	h.logger.Info("ui client connected", zap.String("remote", r.RemoteAddr))
	if err != nil {
		h.logger.Warn("log event replay failed", zap.Error(err))
		h.remove(c)
		return
	}

	// clients never send anything meaningful; reading drives ping/close handling
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Write broadcasts a read_channels event.
func (h *Hub) Write(ctx context.Context, snap device.Snapshot) error {
	return h.broadcast(ctx, Event{Event: EventReadChannels, Payload: snap})
}

// Notify broadcasts a log_event and keeps it for clients that connect later.
// Failures are logged, not returned.
func (h *Hub) Notify(message string) {
	msg, err := json.Marshal(Event{Event: EventLogEvent, Payload: message})
	if err != nil {
		h.logger.Warn("log event encode failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.lastLog = msg
	clients := h.listLocked()
	h.mu.Unlock()

	if err := h.sendAll(context.Background(), EventLogEvent, clients, msg); err != nil {
		h.logger.Warn("log event broadcast failed", zap.Error(err))
	}
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		_ = c.conn.Close()
	}
	return nil
}

func (h *Hub) broadcast(ctx context.Context, ev Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ws: encode %s: %w", ev.Event, err)
	}

	h.mu.Lock()
	clients := h.listLocked()
	h.mu.Unlock()

	return h.sendAll(ctx, ev.Event, clients, msg)
}

func (h *Hub) listLocked() []*client {
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) sendAll(ctx context.Context, event string, clients []*client, msg []byte) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, c := range clients {
		eg.Go(func() error {
			if err := c.send(ctx, msg); err != nil {
				h.remove(c)
				return fmt.Errorf("ws: send %s: %w", event, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
		h.logger.Info("ui client disconnected", zap.String("remote", c.conn.RemoteAddr().String()))
	}
}

func (c *client) send(ctx context.Context, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, msg)
}

// write requires c.mu.
func (c *client) write(ctx context.Context, msg []byte) error {
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}
