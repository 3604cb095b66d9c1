// This file defines Message records and related rules.
// Messages are immutable once persisted except through the admin edit path.
package domain

import "time"

// Message represents a persisted chat message. ID is monotonic and assigned
// at persistence time; CreatedAt is the sole ordering key for history.
// IsPublic is true exactly when ReceiverID is nil.
type Message struct {
	ID         uint64
	SessionID  string
	SenderID   string
	ReceiverID *string
	Text       string
	Lang       string
	IsPublic   bool
	CreatedAt  time.Time
}

// HistoryFilter narrows a history query. Zero value means "everything,
// newest first, first page".
type HistoryFilter struct {
	IsPublic       *bool
	RequesterID    string
	CounterpartyID *string
	Skip           int
	Take           int
}
