package workers

import (
	"chat-server/domain"
	"chat-server/search"
	"context"
	"log/slog"
)

// SearchIndexer feeds persisted messages into the Bluge index off the send
// path. Indexing is best-effort: a failure here must never fail a send, so
// errors are logged and the message stays searchable-from-store only.
type SearchIndexer struct {
	log      *slog.Logger
	index    search.IMessageIndex
	messages chan domain.Message
}

func NewSearchIndexer(log *slog.Logger, index search.IMessageIndex, messages chan domain.Message) *SearchIndexer {
	return &SearchIndexer{log: log, index: index, messages: messages}
}

func (w *SearchIndexer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping search indexer")
			return nil
		case msg := <-w.messages:
			if err := w.index.Index(msg); err != nil {
				w.log.Error("failed to index message", "message_id", msg.ID, "error", err)
			}
		}
	}
}
