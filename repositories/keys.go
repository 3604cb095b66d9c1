// Package repositories persists users, sessions, memberships and messages in
// BadgerDB. Keys follow a prefix-and-padding scheme so that prefix scans come
// back in the order the domain needs without secondary indexes.
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	userPrefix        = "user:"
	userEmailPrefix   = "useremail:"
	sessionPrefix     = "session:"
	sessionNamePrefix = "sessionname:"
	memberPrefix      = "member:"
	messagePrefix     = "msg:"
	messageIDPrefix   = "msgid:"

	messageSeqKey = "seq:message"
	memberSeqKey  = "seq:member"
)

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func userEmailKey(email string) []byte {
	return []byte(userEmailPrefix + email)
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// sessionNameKey maps the (name, is_private) pair to a session id, which is
// what makes initializeSession idempotent on that pair.
func sessionNameKey(name string, isPrivate bool) []byte {
	flag := "0"
	if isPrivate {
		flag = "1"
	}
	return []byte(fmt.Sprintf("%s%s:%s", sessionNamePrefix, name, flag))
}

func memberKey(sessionID, userID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", memberPrefix, sessionID, userID))
}

func memberScanPrefix(sessionID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", memberPrefix, sessionID))
}

// messageKey embeds a 19-digit zero-padded timestamp so lexicographic order
// is chronological order, plus the monotonic sequence number as a collision
// disconnector for messages landing in the same nanosecond.
func messageKey(sessionID string, at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%012d", messagePrefix, sessionID, at.UnixNano(), seq))
}

func messageScanPrefix(sessionID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", messagePrefix, sessionID))
}

// messageIDKey maps the monotonic message id back to the full message key.
// Used by the administrative edit path, which addresses messages by id.
func messageIDKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%012d", messageIDPrefix, seq))
}

func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
