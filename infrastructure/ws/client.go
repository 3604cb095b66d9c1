package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-server/domain/event"
)

// connState tracks where a connection sits in its lifecycle.
type connState int32

const (
	stateConnecting connState = iota
	stateAuthenticated
	stateActive
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAuthenticated:
		return "authenticated"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// client owns one websocket connection. All writes to the socket happen on
// the write pump goroutine; the read loop lives in the handler.
type client struct {
	log  *slog.Logger
	conn *websocket.Conn
	sink *Sink

	mu       sync.Mutex
	userID   string
	nickname string
	state    connState
}

func newClient(log *slog.Logger, conn *websocket.Conn, sink *Sink) *client {
	conn.SetReadLimit(maxFrameSize)
	return &client{
		log:   log,
		conn:  conn,
		sink:  sink,
		state: stateConnecting,
	}
}

func (c *client) setState(s connState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *client) currentState() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *client) setIdentity(userID, nickname string) {
	c.mu.Lock()
	c.userID = userID
	c.nickname = nickname
	c.mu.Unlock()
}

func (c *client) identity() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.nickname
}

// enqueue routes a connection-local event through the sink so the write
// pump stays the only socket writer.
func (c *client) enqueue(ctx context.Context, e event.DomainEvent) {
	if err := c.sink.Consume(ctx, e); err != nil {
		userID, _ := c.identity()
		c.log.Warn("Dropping connection event", "event", e.Event(), "user_id", userID, "err", err)
	}
}

// setupRead configures the read deadline and pong handler. It must run
// before the read loop and the write pump start; gorilla's read-side
// configuration is not safe concurrently with read methods.
func (c *client) setupRead() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// writePump drains the sink and keeps the connection alive with pings.
// It returns when the context is cancelled or a write fails.
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e := <-c.sink.Events():
			env, err := toEnvelope(e)
			if err != nil {
				c.log.Error("Failed to serialize event", "event", e.Event(), "err", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				userID, _ := c.identity()
				c.log.Warn("Write failed, closing connection", "user_id", userID, "err", err)
				return
			}
		}
	}
}
