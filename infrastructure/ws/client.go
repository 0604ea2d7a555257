package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/firekill222/signaling-server/domain"
)

// client is one live websocket connection. The read pump runs on the
// handler goroutine; the write pump is the only goroutine that writes to
// the connection, draining the send queue.
type client struct {
	session domain.SessionID
	conn    *websocket.Conn
	send    chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(session domain.SessionID, conn *websocket.Conn, sendBuffer int) *client {
	return &client{
		session: session,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// enqueue hands a buffer to the write pump without blocking. A full queue
// means the recipient is too slow right now; the frame is dropped for
// this recipient only.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump consumes inbound frames until the connection dies, handing
// each payload to the relay loop. Both binary and text frames are passed
// through; the wire codec decides whether the bytes mean anything.
func (c *client) readPump(maxMessageSize int64, pongTimeout time.Duration, onFrame func([]byte)) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		onFrame(payload)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. It owns all writes to the underlying connection.
func (c *client) writePump(writeTimeout, pongTimeout time.Duration) {
	pingInterval := pongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
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
