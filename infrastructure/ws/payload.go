package ws

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"chat-server/domain"
	"chat-server/domain/event"
	"chat-server/errors"
)

// Envelope is the wire frame for every inbound and outbound websocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	eventSendMessage     = "sendMessage"
	eventUpdateToken     = "updateToken"
	eventGetActiveUsers  = "getActiveUsers"
	eventCloseConnection = "close-connection"
)

type sendMessageRequest struct {
	SessionID   string  `json:"session_id"`
	MessageText string  `json:"message_text"`
	ReceiverID  *string `json:"receiver_id,omitempty"`
}

type updateTokenRequest struct {
	AccessToken string `json:"access_token"`
}

type messageView struct {
	ID         uint64    `json:"id"`
	SessionID  string    `json:"session_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID *string   `json:"receiver_id,omitempty"`
	Text       string    `json:"message_text"`
	Lang       string    `json:"lang,omitempty"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
}

type messagePayload struct {
	Message      messageView          `json:"message"`
	Participants []domain.Participant `json:"participants"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toMessageView(m domain.Message) messageView {
	return messageView{
		ID:         m.ID,
		SessionID:  m.SessionID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		Lang:       m.Lang,
		IsPublic:   m.IsPublic,
		CreatedAt:  m.CreatedAt,
	}
}

// errorEvent rides the sink channel so all writes stay on the write pump.
type errorEvent struct {
	payload errorPayload
}

func (errorEvent) Event() string { return "error" }

func newErrorEvent(err error) errorEvent {
	return errorEvent{payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

// errorCode maps an error to a stable wire code by its kind.
func errorCode(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case stderrors.Is(err, errors.ErrNotFound):
		return "NOT_FOUND"
	case stderrors.Is(err, errors.ErrConflict):
		return "CONFLICT"
	case stderrors.Is(err, errors.ErrPermission):
		return "PERMISSION_DENIED"
	case stderrors.Is(err, errors.ErrValidation):
		return "INVALID_ARGUMENT"
	default:
		return "INTERNAL"
	}
}

// toEnvelope serializes a domain event into its wire frame.
func toEnvelope(e event.DomainEvent) (Envelope, error) {
	var data any
	switch ev := e.(type) {
	case event.PublicMessage:
		data = messagePayload{Message: toMessageView(ev.Message), Participants: ev.Participants}
	case event.PrivateMessage:
		data = messagePayload{Message: toMessageView(ev.Message), Participants: ev.Participants}
	case event.ActiveUsers:
		data = ev.UserIDs
	case event.TokenUpdated:
		data = updateTokenRequest{AccessToken: ev.AccessToken}
	case errorEvent:
		data = ev.payload
	default:
		data = e
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s event: %w", e.Event(), err)
	}
	return Envelope{Event: e.Event(), Data: raw}, nil
}
