//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-server/domain"
	"chat-server/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// defaultTake caps a history page when the caller does not ask for a size.
const defaultTake = 50

type IMessageRepository interface {
	Append(sessionID, senderID, text, lang string, receiverID *string) (domain.Message, error)
	History(sessionID string, filter domain.HistoryFilter) ([]domain.Message, error)
	LoadByKeys(keys []string) ([]domain.Message, error)
	UpdateText(messageID uint64, newText string) (domain.Message, error)
}

type MessageRepository struct {
	db         *badger.DB
	log        *slog.Logger
	messageSeq *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), 128)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, messageSeq: seq}, nil
}

// Close releases the message sequence lease.
func (m *MessageRepository) Close() error {
	return m.messageSeq.Release()
}

type messageRecord struct {
	ID         uint64    `json:"id"`
	SessionID  string    `json:"session_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID *string   `json:"receiver_id,omitempty"`
	Text       string    `json:"message_text"`
	Lang       string    `json:"lang,omitempty"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
}

// Append persists one message. The sender (and receiver, when present)
// membership check runs inside the same transaction as the write, so a
// message can never be attributed to a sender who was never a member, and a
// partially-written message is never visible.
func (m *MessageRepository) Append(sessionID, senderID, text, lang string, receiverID *string) (domain.Message, error) {
	if text == "" {
		return domain.Message{}, fmt.Errorf("%w: message text is empty", errors.ErrValidation)
	}

	seq, err := m.messageSeq.Next()
	if err != nil {
		return domain.Message{}, err
	}

	record := messageRecord{
		ID:         seq,
		SessionID:  sessionID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Lang:       lang,
		IsPublic:   receiverID == nil,
		CreatedAt:  time.Now().UTC(),
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(memberKey(sessionID, senderID)); stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: sender is not a participant of this session", errors.ErrNotFound)
		} else if err != nil {
			return err
		}
		if receiverID != nil {
			if _, err := txn.Get(memberKey(sessionID, *receiverID)); stderrors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: receiver is not a participant of this session", errors.ErrNotFound)
			} else if err != nil {
				return err
			}
		}

		key := messageKey(sessionID, record.CreatedAt, seq)
		if err := setJSON(txn, key, record); err != nil {
			return err
		}
		return txn.Set(messageIDKey(seq), key)
	})
	if err != nil {
		return domain.Message{}, err
	}

	return toMessage(record), nil
}

// History scans the session's messages newest first. Thanks to the padded
// timestamp in the key a reverse prefix scan is already in created_at
// descending order; filters are applied in-scan, skip/take after filtering.
func (m *MessageRepository) History(sessionID string, filter domain.HistoryFilter) ([]domain.Message, error) {
	take := filter.Take
	if take <= 0 {
		take = defaultTake
	}

	var result []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := messageScanPrefix(sessionID)
		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)

		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var record messageRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if !matchesFilter(record, filter) {
				continue
			}
			if skipped < filter.Skip {
				skipped++
				continue
			}
			result = append(result, toMessage(record))
			if len(result) == take {
				break
			}
		}
		return nil
	})
	return result, err
}

func matchesFilter(record messageRecord, filter domain.HistoryFilter) bool {
	if filter.IsPublic != nil && record.IsPublic != *filter.IsPublic {
		return false
	}
	if filter.CounterpartyID != nil {
		if record.ReceiverID == nil {
			return false
		}
		cp := *filter.CounterpartyID
		requester := filter.RequesterID
		sent := record.SenderID == requester && *record.ReceiverID == cp
		received := record.SenderID == cp && *record.ReceiverID == requester
		if !sent && !received {
			return false
		}
	}
	return true
}

// LoadByKeys resolves full records for keys handed back by the search index.
// A key the index knows but the store no longer holds is skipped, not fatal.
func (m *MessageRepository) LoadByKeys(keys []string) ([]domain.Message, error) {
	result := make([]domain.Message, 0, len(keys))
	err := m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			var record messageRecord
			err := getJSON(txn, []byte(key), &record)
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				m.log.Debug("indexed message missing from store", "key", key)
				continue
			}
			if err != nil {
				return err
			}
			result = append(result, toMessage(record))
		}
		return nil
	})
	return result, err
}

// UpdateText is the administrative edit path, distinct from the send flow.
func (m *MessageRepository) UpdateText(messageID uint64, newText string) (domain.Message, error) {
	if newText == "" {
		return domain.Message{}, fmt.Errorf("%w: new message text is required", errors.ErrValidation)
	}

	var record messageRecord
	err := m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(messageIDKey(messageID))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: message %d", errors.ErrNotFound, messageID)
		} else if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := getJSON(txn, key, &record); err != nil {
			return err
		}
		record.Text = newText
		return setJSON(txn, key, record)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(record), nil
}

// MessageKeyFor rebuilds the storage key of a persisted message. The search
// indexer uses it as the document identifier.
func MessageKeyFor(msg domain.Message) string {
	return string(messageKey(msg.SessionID, msg.CreatedAt, msg.ID))
}

func toMessage(record messageRecord) domain.Message {
	return domain.Message{
		ID:         record.ID,
		SessionID:  record.SessionID,
		SenderID:   record.SenderID,
		ReceiverID: record.ReceiverID,
		Text:       record.Text,
		Lang:       record.Lang,
		IsPublic:   record.IsPublic,
		CreatedAt:  record.CreatedAt,
	}
}
