package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"easel/internal/hub"
	"easel/internal/ratelimit"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 1024 * 1024
	sendBuffer        = 512
	messagesPerSecond = 100
	messageBurst      = 200
)

// Client adapts one gorilla connection to the hub.Conn interface. Frames
// read off the wire go to the hub's run loop; frames from the hub are
// queued on the send channel and written by the write pump.
type Client struct {
	hub     *hub.Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *ratelimit.Limiter
	id      string
}

// Handler returns the /ws upgrade handler. allowedOrigin of "" or "*"
// accepts any origin.
func Handler(h *hub.Hub, allowedOrigin string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			hub:     h,
			conn:    conn,
			send:    make(chan []byte, sendBuffer),
			limiter: ratelimit.NewLimiter(messagesPerSecond, messageBurst),
			id:      uuid.New().String(),
		}

		h.Register(client)

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) ID() string { return c.id }

// Send queues data for the write pump without blocking. A full buffer
// means the participant cannot keep up; the frame is dropped and the
// error lets the fan-out skip this recipient.
func (c *Client) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full for client %s", c.id)
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rateLimitWarnings := 0

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "clientId", c.id, "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			rateLimitWarnings++
			if rateLimitWarnings%100 == 1 {
				slog.Warn("rate limit exceeded",
					"clientId", c.id, "warnings", rateLimitWarnings)
			}
			if rateLimitWarnings > 1000 {
				slog.Warn("disconnecting client for sustained rate limit violations",
					"clientId", c.id)
				return
			}
			continue
		}

		c.hub.Dispatch(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
