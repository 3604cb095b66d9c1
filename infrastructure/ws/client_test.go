package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-server/domain/event"
)

// newConnPair upgrades a real websocket connection through an httptest
// server and returns both ends.
func newConnPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	select {
	case conn := <-serverConns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn, peer
	case <-time.After(time.Second):
		t.Fatal("server side never connected")
		return nil, nil
	}
}

func TestWritePump_DeliversSinkEventsWhileReading(t *testing.T) {
	assert := require.New(t)
	serverConn, peer := newConnPair(t)

	sink := NewSink(4, nil)
	c := newClient(logs.GetLoggerFromString("ERROR"), serverConn, sink)

	// Read configuration happens once, before the read loop and the
	// write pump are both live on the connection.
	c.setupRead()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.writePump(ctx)
	go func() {
		for {
			if _, _, err := serverConn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	assert.NoError(sink.Consume(ctx, event.ActiveUsers{UserIDs: []string{"user-a"}}))

	assert.NoError(peer.SetReadDeadline(time.Now().Add(time.Second)))
	var env Envelope
	assert.NoError(peer.ReadJSON(&env))
	assert.Equal("activeUsers", env.Event)

	cancel()
	_, _, err := peer.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	assert.True(ok, "expected a close frame, got %v", err)
	assert.Equal(websocket.CloseGoingAway, closeErr.Code)
}
