package repositories

import (
	"chatit/contract"
	"chatit/errors"
	stdErrors "errors"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.ISessionStore = (*SessionRepository)(nil)

var sessionKey = []byte("session:username")

// SessionRepository keeps the signed in username of this device.
type SessionRepository struct {
	db *badger.DB
}

func NewSessionRepository(db *badger.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (s *SessionRepository) CurrentUsername() (string, error) {
	var username string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		username = string(value)
		return err
	})
	if stdErrors.Is(err, badger.ErrKeyNotFound) || (err == nil && username == "") {
		return "", errors.ErrNoSession
	}
	return username, err
}

func (s *SessionRepository) SaveUsername(username string) error {
	if username == "" {
		return errors.ErrNoSession
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey, []byte(username))
	})
}

// Clear signs the device out. Clearing an empty session is fine.
func (s *SessionRepository) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey)
	})
}
