package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-server/domain"
	"chat-server/domain/event"
	"chat-server/errors"
)

func TestToEnvelopePublicMessage(t *testing.T) {
	assert := require.New(t)

	receiver := "user-b"
	msg := domain.Message{
		ID:         42,
		SessionID:  "session-1",
		SenderID:   "user-a",
		ReceiverID: &receiver,
		Text:       "hello",
		Lang:       "en",
		CreatedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	env, err := toEnvelope(event.PublicMessage{
		Message:      msg,
		Participants: []domain.Participant{{ID: "user-a", Nickname: "alice"}},
	})
	assert.NoError(err)
	assert.Equal("newPublicMessage", env.Event)

	var payload messagePayload
	assert.NoError(json.Unmarshal(env.Data, &payload))
	assert.Equal(uint64(42), payload.Message.ID)
	assert.Equal("hello", payload.Message.Text)
	assert.Equal("user-b", *payload.Message.ReceiverID)
	assert.Len(payload.Participants, 1)
	assert.Equal("alice", payload.Participants[0].Nickname)
}

func TestToEnvelopeActiveUsers(t *testing.T) {
	assert := require.New(t)

	env, err := toEnvelope(event.ActiveUsers{UserIDs: []string{"a", "b"}})
	assert.NoError(err)
	assert.Equal("activeUsers", env.Event)
	assert.JSONEq(`["a","b"]`, string(env.Data))
}

func TestToEnvelopeError(t *testing.T) {
	assert := require.New(t)

	env, err := toEnvelope(newErrorEvent(fmt.Errorf("%w: session missing", errors.ErrNotFound)))
	assert.NoError(err)
	assert.Equal("error", env.Event)

	var payload errorPayload
	assert.NoError(json.Unmarshal(env.Data, &payload))
	assert.Equal("NOT_FOUND", payload.Code)
	assert.Contains(payload.Message, "session missing")
}

func TestErrorCodeMapping(t *testing.T) {
	assert := require.New(t)

	cases := map[string]struct {
		err  error
		code string
	}{
		"unauthenticated": {errors.ErrUnauthenticated, "UNAUTHENTICATED"},
		"not found":       {errors.ErrNotFound, "NOT_FOUND"},
		"conflict":        {fmt.Errorf("wrapped: %w", errors.ErrConflict), "CONFLICT"},
		"permission":      {errors.ErrPermission, "PERMISSION_DENIED"},
		"validation":      {errors.ErrValidation, "INVALID_ARGUMENT"},
		"unknown":         {fmt.Errorf("disk on fire"), "INTERNAL"},
	}
	for name, tc := range cases {
		assert.Equal(tc.code, errorCode(tc.err), name)
	}
}

func TestSinkDropsWhenFull(t *testing.T) {
	assert := require.New(t)

	drops := 0
	sink := NewSink(1, func() { drops++ })
	ctx := context.Background()

	assert.NoError(sink.Consume(ctx, event.ActiveUsers{UserIDs: []string{"a"}}))
	assert.NoError(sink.Consume(ctx, event.ActiveUsers{UserIDs: []string{"b"}}))
	assert.Equal(1, drops)

	first := <-sink.Events()
	assert.Equal([]string{"a"}, first.(event.ActiveUsers).UserIDs)

	select {
	case extra := <-sink.Events():
		assert.Failf("unexpected event", "got %v", extra)
	default:
	}
}
