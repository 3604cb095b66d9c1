package workers

import (
	"chat-server/domain/event"
	"chat-server/runtime"
	"context"
	"log/slog"
)

// PresenceNotifier turns presence-change notifications into the activeUsers
// broadcast. Keeping the push here, outside the directory, is what
// guarantees the directory lock is never held across connection I/O.
type PresenceNotifier struct {
	log      *slog.Logger
	presence *runtime.Presence
}

func NewPresenceNotifier(log *slog.Logger, presence *runtime.Presence) *PresenceNotifier {
	return &PresenceNotifier{log: log, presence: presence}
}

func (w *PresenceNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence notifier")
			return nil
		case <-w.presence.Notifications():
			ids, sinks := w.presence.Snapshot()
			evt := event.ActiveUsers{UserIDs: ids}
			for _, sink := range sinks {
				if err := sink.Consume(ctx, evt); err != nil {
					w.log.Debug("active users push dropped", "error", err)
				}
			}
		}
	}
}
