// Package search maintains a Bluge side index of message text. The index is
// fed off the fan-out pipeline, so it trails the store by design; results are
// resolved back to full records through the message repository.
//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_search.go -package=mocks
package search

import (
	"chat-server/domain"
	"chat-server/repositories"
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
)

type IMessageIndex interface {
	Index(msg domain.Message) error
	SearchText(ctx context.Context, sessionID, substring string, limit int) ([]string, error)
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index upserts one message document. The document identifier is the badger
// key, so a hit can be loaded without a second lookup table. Keyword fields
// keep the raw term, which is what makes SearchText case-sensitive.
func (i *MessageIndex) Index(msg domain.Message) error {
	key := repositories.MessageKeyFor(msg)

	doc := bluge.NewDocument(key)
	doc.AddField(bluge.NewKeywordField("session_id", msg.SessionID))
	doc.AddField(bluge.NewKeywordField("message_text", msg.Text))
	doc.AddField(bluge.NewNumericField("created_at", float64(msg.CreatedAt.UnixNano())).Sortable())

	return i.writer.Update(doc.ID(), doc)
}

// SearchText returns the storage keys of messages in sessionID whose text
// contains substring, ordered ascending by created_at. The match is a
// wildcard query over the keyword term: exact-case substring semantics.
func (i *MessageIndex) SearchText(ctx context.Context, sessionID, substring string, limit int) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("closing index reader", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(sessionID).SetField("session_id")).
		AddMust(bluge.NewWildcardQuery("*" + substring + "*").SetField("message_text"))

	request := bluge.NewTopNSearch(limit, query).SortBy([]string{"created_at"})

	iter, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var keys []string
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}
