package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chat-server/auth"
	"chat-server/contract"
	"chat-server/domain/event"
	"chat-server/errors"
	"chat-server/observability"
	"chat-server/services"
)

const maxFrameSize = 64 << 10

// Handler upgrades HTTP requests to websocket connections and drives each
// connection through its lifecycle: connecting, authenticated, active, closed.
type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	auth       services.IAuthService
	presence   contract.IPresence
	monitor    *observability.Monitor
	upgrader   websocket.Upgrader
	bufferSize int
	authWindow time.Duration
}

func NewHandler(
	log *slog.Logger,
	chat services.IChatService,
	authService services.IAuthService,
	presence contract.IPresence,
	monitor *observability.Monitor,
	bufferSize int,
	authWindow time.Duration,
) *Handler {
	return &Handler{
		log:      log,
		chat:     chat,
		auth:     authService,
		presence: presence,
		monitor:  monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		bufferSize: bufferSize,
		authWindow: authWindow,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sink := NewSink(h.bufferSize, h.monitor.IncrEventsDropped)
	c := newClient(h.log, conn, sink)
	defer h.teardown(c, sink)

	claims, err := h.authenticate(c, r.URL.Query().Get("token"))
	if err != nil {
		h.log.Info("Rejecting unauthenticated connection", "remote", r.RemoteAddr, "err", err)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required"))
		return
	}

	c.setIdentity(claims.UserID, claims.Nickname)
	c.setState(stateAuthenticated)
	h.presence.Register(claims.UserID, sink)
	h.log.Info("User connected", "user_id", claims.UserID, "nickname", claims.Nickname)

	c.setupRead()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go c.writePump(ctx)

	c.setState(stateActive)
	h.readLoop(ctx, c)
}

// authenticate verifies the handshake token, or waits for a single
// updateToken frame when the query parameter is absent. The whole exchange
// must finish inside the auth window.
func (h *Handler) authenticate(c *client, token string) (*auth.CustomClaims, error) {
	if token != "" {
		claims, err := auth.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return claims, nil
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(h.authWindow))
	var env Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return nil, fmt.Errorf("%w: no credentials presented", errors.ErrUnauthenticated)
	}
	if env.Event != eventUpdateToken {
		return nil, fmt.Errorf("%w: expected %s, got %s", errors.ErrUnauthenticated, eventUpdateToken, env.Event)
	}
	var req updateTokenRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed credentials", errors.ErrUnauthenticated)
	}
	return auth.ValidateToken(req.AccessToken)
}

// teardown runs on every exit path. It removes the connection from the
// presence directory only if the directory still points at this sink, so a
// reconnect that already replaced the handle is left untouched.
func (h *Handler) teardown(c *client, sink *Sink) {
	c.setState(stateClosed)
	userID, _ := c.identity()
	if userID != "" {
		if current, ok := h.presence.Lookup(userID); ok && current == contract.EventSink(sink) {
			h.presence.Unregister(userID)
		}
		h.log.Info("User disconnected", "user_id", userID)
	}
	_ = c.conn.Close()
}

func (h *Handler) readLoop(ctx context.Context, c *client) {
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				userID, _ := c.identity()
				h.log.Warn("Unexpected connection drop", "user_id", userID, "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch env.Event {
		case eventSendMessage:
			h.handleSendMessage(ctx, c, env.Data)
		case eventUpdateToken:
			h.handleUpdateToken(ctx, c, env.Data)
		case eventGetActiveUsers:
			c.enqueue(ctx, event.ActiveUsers{UserIDs: h.chat.ListOnline()})
		case eventCloseConnection:
			return
		default:
			c.enqueue(ctx, newErrorEvent(fmt.Errorf("%w: unknown event %q", errors.ErrValidation, env.Event)))
		}
	}
}

func (h *Handler) handleSendMessage(ctx context.Context, c *client, data json.RawMessage) {
	var req sendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(ctx, newErrorEvent(fmt.Errorf("%w: malformed sendMessage payload", errors.ErrValidation)))
		return
	}

	userID, _ := c.identity()
	if _, _, err := h.chat.SendMessage(ctx, req.SessionID, userID, req.MessageText, req.ReceiverID); err != nil {
		h.log.Info("Message rejected", "user_id", userID, "session_id", req.SessionID, "err", err)
		h.monitor.IncrMessagesRejected()
		c.enqueue(ctx, newErrorEvent(err))
		return
	}
	h.monitor.IncrMessagesAccepted()
}

// handleUpdateToken swaps the connection over to a freshly issued token.
// A failed refresh keeps the connection and its presence entry intact.
func (h *Handler) handleUpdateToken(ctx context.Context, c *client, data json.RawMessage) {
	var req updateTokenRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(ctx, newErrorEvent(fmt.Errorf("%w: malformed updateToken payload", errors.ErrValidation)))
		return
	}

	fresh, err := h.auth.Refresh(req.AccessToken)
	if err != nil {
		c.enqueue(ctx, newErrorEvent(err))
		return
	}
	claims, err := auth.ValidateToken(string(fresh))
	if err != nil {
		c.enqueue(ctx, newErrorEvent(err))
		return
	}

	prevUserID, _ := c.identity()
	if prevUserID != "" && prevUserID != claims.UserID {
		h.presence.Unregister(prevUserID)
	}
	c.setIdentity(claims.UserID, claims.Nickname)
	h.presence.Register(claims.UserID, c.sink)

	c.enqueue(ctx, event.TokenUpdated{AccessToken: string(fresh)})
}
