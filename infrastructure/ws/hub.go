// Package ws is the connection dispatcher: it owns one websocket per
// client, translates the connection lifecycle into session events for the
// relay loop, and delivers pre-encoded buffers back to live connections.
package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/firekill222/signaling-server/domain"
	"github.com/firekill222/signaling-server/domain/event"
	errs "github.com/firekill222/signaling-server/errors"
)

type Options struct {
	SendBufferSize int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// Hub tracks connected clients by session id and feeds the relay loop.
// It guarantees exactly one Connected and one Closed event per accepted
// connection, with frames only in between.
type Hub struct {
	log      *slog.Logger
	opts     Options
	events   chan<- event.SessionEvent
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[domain.SessionID]*client
}

func NewHub(log *slog.Logger, opts Options, events chan<- event.SessionEvent) *Hub {
	return &Hub{
		log:    log,
		opts:   opts,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay has no browser-facing origin policy of its own.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[domain.SessionID]*client),
	}
}

// ServeHTTP upgrades one connection and blocks until it closes. The
// session id comes from the `session` query parameter, or is generated
// when absent.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := domain.SessionID(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = domain.SessionID(uuid.NewString())
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := newClient(sessionID, conn, h.opts.SendBufferSize)

	if !h.register(c) {
		// A connection already speaks for this session id. Rejecting the
		// newcomer before any Connect event keeps the one-Connect /
		// one-Disconnect contract intact for the original.
		h.log.Warn(fmt.Sprintf("Rejecting connection for session %s", sessionID),
			"error", errs.ErrSessionTaken)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session id already connected"),
			time.Now().Add(h.opts.WriteTimeout))
		_ = conn.Close()
		return
	}

	h.events <- event.Connected{Session: sessionID}

	go c.writePump(h.opts.WriteTimeout, h.opts.PongTimeout)
	c.readPump(h.opts.MaxMessageSize, h.opts.PongTimeout, func(payload []byte) {
		h.events <- event.FrameReceived{Session: sessionID, Payload: payload}
	})

	h.unregister(c)
	h.events <- event.Closed{Session: sessionID}
}

// Send enqueues one pre-encoded buffer for a session. It never blocks:
// a missing client or a full send queue reports false and the caller
// skips that recipient.
func (h *Hub) Send(sessionID domain.SessionID, payload []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(payload)
}

// Close tears a session's connection down. The read pump notices and the
// usual disconnect path runs.
func (h *Hub) Close(sessionID domain.SessionID) {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if ok {
		c.close()
	}
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.clients[c.session]; taken {
		return false
	}
	h.clients[c.session] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[c.session]; ok && current == c {
		delete(h.clients, c.session)
	}
	c.close()
}
