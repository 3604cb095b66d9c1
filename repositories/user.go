//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-server/domain"
	"chat-server/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(email, nickname, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
	GetUser(id string) (domain.User, error)
	ListUsers() ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation of an identity, credentials
// included. Only domain.User leaves this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists a new user keyed both by id and by email.
// It returns the newly generated user ID.
func (u UserRepository) CreateUser(email, nickname, hashedPassword string) (string, error) {
	newID := uuid.NewString()
	record := User{
		ID:           newID,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userEmailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := setJSON(txn, userKey(newID), record); err != nil {
			return err
		}
		return txn.Set(userEmailKey(email), []byte(newID))
	})
	if err != nil {
		return "", err
	}

	return newID, nil
}

func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var id []byte
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if err != nil {
			return err
		}
		id, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, email)
	}
	if err != nil {
		return User{}, err
	}

	var record User
	err = u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(string(id)), &record)
	})
	return record, err
}

func (u UserRepository) GetUser(id string) (domain.User, error) {
	var record User
	err := u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: record.ID, Nickname: record.Nickname}, nil
}

// ListUsers returns every registered identity, credentials stripped. This
// backs the directory clients use to discover participant and receiver ids.
func (u UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			users = append(users, domain.User{ID: record.ID, Nickname: record.Nickname})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
