package workers

import (
	"context"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-server/domain/event"
	"chat-server/runtime"
)

type captureSink struct {
	events chan event.DomainEvent
}

func newCaptureSink() *captureSink {
	return &captureSink{events: make(chan event.DomainEvent, 8)}
}

func (s *captureSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.events <- e
	return nil
}

func TestPresenceNotifier_BroadcastsActiveUsers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromString("ERROR")

	presence := runtime.NewPresence()
	worker := NewPresenceNotifier(log, presence)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	sinkA := newCaptureSink()
	presence.Register("user-a", sinkA)

	// Every connected sink eventually receives the current roster.
	req.Eventually(func() bool {
		select {
		case e := <-sinkA.events:
			active, ok := e.(event.ActiveUsers)
			return ok && len(active.UserIDs) == 1 && active.UserIDs[0] == "user-a"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	sinkB := newCaptureSink()
	presence.Register("user-b", sinkB)

	req.Eventually(func() bool {
		select {
		case e := <-sinkB.events:
			active, ok := e.(event.ActiveUsers)
			return ok && len(active.UserIDs) == 2
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("notifier should stop when the context is canceled")
	}
}
