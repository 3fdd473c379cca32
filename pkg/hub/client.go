package hub

import (
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must stay under pongWait
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// ErrHubStopped is returned when a client tries to join a hub that has
// already shut down.
var ErrHubStopped = errors.New("hub: stopped")

// Client is one status subscriber. The websocket handler that created it
// owns the connection; Run must not return while any goroutine still
// touches conn, because the handler hands conn back to its pool on return.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a client, queues greeting (if any) as its first message
// and registers it with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, greeting Message) (*Client, error) {
	client := &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	if greeting != nil {
		client.send <- greeting
	}

	select {
	case hub.register <- client:
		return client, nil
	case <-hub.done:
		return nil, ErrHubStopped
	}
}

// ID returns the client's generated identifier.
func (c *Client) ID() string {
	return c.id
}

// Run serves the client until the peer goes away or the hub drops it.
// The writer is always finished, and the connection closed, before Run
// returns.
func (c *Client) Run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop()
	c.leave()
	<-writerDone
	c.conn.Close()
}

// leave takes the client out of the hub. Once it returns, send is closed:
// either by the unregister case, by an earlier slow-client drop, or by the
// hub's own shutdown.
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// readLoop consumes control frames until the connection fails. Status
// clients have nothing to say, so data frames are discarded.
func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains send and keeps the peer alive with pings. It is the
// only writer on conn. When it stops on its own it expires the read
// deadline so readLoop unblocks as well.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.SetReadDeadline(time.Now())

	for {
		var (
			kind    = websocket.PingMessage
			payload []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind, payload = websocket.TextMessage, msg
		case <-ticker.C:
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, payload); err != nil {
			c.hub.logger.Debug("status write failed", "client", c.id, "error", err)
			return
		}
	}
}
