//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"chat-server/domain"
	"chat-server/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type ISessionRepository interface {
	InitializeSession(name string, isPrivate bool, participantIDs []string, creatorID string) (domain.Session, error)
	GetSession(sessionID string) (domain.Session, error)
	IsMember(sessionID, userID string) (bool, error)
	AddToPublicSession(sessionID, userID string) ([]domain.Participant, error)
	AddToPrivateSession(sessionID, userID, requestorID string) ([]domain.Participant, error)
	RemoveFromSession(sessionID, userID string) error
	ListParticipants(sessionID string) ([]domain.Participant, error)
}

// SessionRepository owns the membership invariants: at most one membership
// per (session, user) pair, and a session's participant set is exactly the
// set of membership rows. Mutations for the same session are serialized by a
// lock keyed on session id, so two concurrent joins for the same user cannot
// both succeed.
type SessionRepository struct {
	db        *badger.DB
	log       *slog.Logger
	memberSeq *badger.Sequence
	locks     keyedMutex
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) (*SessionRepository, error) {
	seq, err := db.GetSequence([]byte(memberSeqKey), 64)
	if err != nil {
		return nil, fmt.Errorf("membership sequence: %w", err)
	}
	return &SessionRepository{db: db, log: log, memberSeq: seq}, nil
}

// Close releases the membership sequence lease.
func (s *SessionRepository) Close() error {
	return s.memberSeq.Release()
}

type sessionRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"session_name"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
}

type membershipRecord struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	IsCreator bool      `json:"is_creator"`
	Ordinal   uint64    `json:"ordinal"`
	JoinedAt  time.Time `json:"joined_at"`
}

// InitializeSession reuses the session matching (name, isPrivate) when one
// exists, otherwise creates it. Either way it enrolls every resolved
// participant that is not yet a member, marking is_creator only for
// creatorID. Participants that do not resolve to a stored user are dropped;
// an empty resolved set is a validation failure.
func (s *SessionRepository) InitializeSession(name string, isPrivate bool, participantIDs []string, creatorID string) (domain.Session, error) {
	if creatorID == "" {
		return domain.Session{}, fmt.Errorf("%w: creator id is missing", errors.ErrValidation)
	}
	if name == "" {
		return domain.Session{}, fmt.Errorf("%w: session name is missing", errors.ErrValidation)
	}

	// Serialize concurrent initializations of the same (name, privacy) pair.
	unlock := s.locks.lock(string(sessionNameKey(name, isPrivate)))
	defer unlock()

	distinct := make(map[string]struct{}, len(participantIDs)+1)
	for _, id := range participantIDs {
		distinct[id] = struct{}{}
	}
	distinct[creatorID] = struct{}{}

	var session domain.Session
	err := s.db.Update(func(txn *badger.Txn) error {
		var record sessionRecord

		item, err := txn.Get(sessionNameKey(name, isPrivate))
		switch {
		case err == nil:
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := getJSON(txn, sessionKey(string(id)), &record); err != nil {
				return err
			}
		case stderrors.Is(err, badger.ErrKeyNotFound):
			record = sessionRecord{
				ID:        uuid.NewString(),
				Name:      name,
				IsPrivate: isPrivate,
				CreatedAt: time.Now().UTC(),
			}
			if err := setJSON(txn, sessionKey(record.ID), record); err != nil {
				return err
			}
			if err := txn.Set(sessionNameKey(name, isPrivate), []byte(record.ID)); err != nil {
				return err
			}
		default:
			return err
		}

		enrolled := 0
		for id := range distinct {
			// Unknown identities are skipped, not fatal.
			if _, err := txn.Get(userKey(id)); stderrors.Is(err, badger.ErrKeyNotFound) {
				continue
			} else if err != nil {
				return err
			}
			enrolled++

			if _, err := txn.Get(memberKey(record.ID, id)); err == nil {
				continue // already a member, idempotent re-init
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := s.writeMembership(txn, record.ID, id, id == creatorID); err != nil {
				return err
			}
		}
		if enrolled == 0 {
			return fmt.Errorf("%w: no users found for the given participants", errors.ErrValidation)
		}

		session = toSession(record)
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.log.Info("session initialized", "session_id", session.ID, "name", name, "is_private", isPrivate)
	return session, nil
}

func (s *SessionRepository) writeMembership(txn *badger.Txn, sessionID, userID string, isCreator bool) error {
	ordinal, err := s.memberSeq.Next()
	if err != nil {
		return err
	}
	return setJSON(txn, memberKey(sessionID, userID), membershipRecord{
		SessionID: sessionID,
		UserID:    userID,
		IsCreator: isCreator,
		Ordinal:   ordinal,
		JoinedAt:  time.Now().UTC(),
	})
}

func (s *SessionRepository) GetSession(sessionID string) (domain.Session, error) {
	var record sessionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(sessionID), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Session{}, fmt.Errorf("%w: session %s", errors.ErrNotFound, sessionID)
	}
	if err != nil {
		return domain.Session{}, err
	}
	return toSession(record), nil
}

func (s *SessionRepository) IsMember(sessionID, userID string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(sessionID, userID))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddToPublicSession enrolls userID into an existing public session.
// A private or missing session surfaces as the same NotFound.
func (s *SessionRepository) AddToPublicSession(sessionID, userID string) ([]domain.Participant, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		record, err := s.requireSession(txn, sessionID)
		if err != nil {
			return err
		}
		if record.IsPrivate {
			return fmt.Errorf("%w: public session %s", errors.ErrNotFound, sessionID)
		}
		if _, err := txn.Get(userKey(userID)); stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: user %s", errors.ErrNotFound, userID)
		} else if err != nil {
			return err
		}
		if _, err := txn.Get(memberKey(sessionID, userID)); err == nil {
			return fmt.Errorf("%w: user already in the public session", errors.ErrConflict)
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return s.writeMembership(txn, sessionID, userID, false)
	})
	if err != nil {
		return nil, err
	}

	return s.ListParticipants(sessionID)
}

// AddToPrivateSession enrolls userID into a private session on behalf of
// requestorID, which must already be a member.
func (s *SessionRepository) AddToPrivateSession(sessionID, userID, requestorID string) ([]domain.Participant, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		record, err := s.requireSession(txn, sessionID)
		if err != nil {
			return err
		}
		if !record.IsPrivate {
			return fmt.Errorf("%w: private session %s", errors.ErrNotFound, sessionID)
		}
		if _, err := txn.Get(memberKey(sessionID, requestorID)); stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: requestor is not a participant of this private session", errors.ErrPermission)
		} else if err != nil {
			return err
		}
		if _, err := txn.Get(memberKey(sessionID, userID)); err == nil {
			return fmt.Errorf("%w: user already a participant of this private session", errors.ErrConflict)
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return s.writeMembership(txn, sessionID, userID, false)
	})
	if err != nil {
		return nil, err
	}

	return s.ListParticipants(sessionID)
}

// RemoveFromSession deletes the membership row. Private sessions never
// support removal.
func (s *SessionRepository) RemoveFromSession(sessionID, userID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		record, err := s.requireSession(txn, sessionID)
		if err != nil {
			return err
		}
		if record.IsPrivate {
			return fmt.Errorf("%w: cannot remove a user from a private session", errors.ErrPermission)
		}
		if _, err := txn.Get(memberKey(sessionID, userID)); stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: user is not a participant of this session", errors.ErrNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(memberKey(sessionID, userID))
	})
}

// ListParticipants returns the participant list in membership insertion
// order, nicknames resolved.
func (s *SessionRepository) ListParticipants(sessionID string) ([]domain.Participant, error) {
	var members []membershipRecord
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := s.requireSession(txn, sessionID); err != nil {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := memberScanPrefix(sessionID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record membershipRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			members = append(members, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Prefix order is user-id order; the contract is insertion order.
	sort.Slice(members, func(i, j int) bool {
		return members[i].Ordinal < members[j].Ordinal
	})

	participants := make([]domain.Participant, 0, len(members))
	for _, m := range members {
		var record User
		err := s.db.View(func(txn *badger.Txn) error {
			return getJSON(txn, userKey(m.UserID), &record)
		})
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			s.log.Warn("membership without user record", "session_id", sessionID, "user_id", m.UserID)
			continue
		}
		if err != nil {
			return nil, err
		}
		participants = append(participants, domain.Participant{ID: record.ID, Nickname: record.Nickname})
	}
	return participants, nil
}

func (s *SessionRepository) requireSession(txn *badger.Txn, sessionID string) (sessionRecord, error) {
	var record sessionRecord
	err := getJSON(txn, sessionKey(sessionID), &record)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return sessionRecord{}, fmt.Errorf("%w: session %s", errors.ErrNotFound, sessionID)
	}
	return record, err
}

func toSession(record sessionRecord) domain.Session {
	return domain.Session{
		ID:        record.ID,
		Name:      record.Name,
		IsPrivate: record.IsPrivate,
		CreatedAt: record.CreatedAt,
	}
}

// keyedMutex serializes mutations per session id. Entries are never removed;
// the map is bounded by the number of sessions seen by this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
