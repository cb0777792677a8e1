package store

import (
	"chatit/domain"
	stdErrors "errors"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// documentPrefix namespaces store documents so the same database can hold other records.
const documentPrefix = "doc:"

type badgerBackend struct {
	db *badger.DB
}

// NewBadgerStore persists documents in BadgerDB.
// Keys are "doc:{path}", values are protobuf encoded Struct messages.
func NewBadgerStore(db *badger.DB, log *slog.Logger) *DocumentStore {
	return newDocumentStore(log, &badgerBackend{db: db})
}

func documentKey(path string) []byte {
	return []byte(documentPrefix + path)
}

func (b *badgerBackend) get(path string) (map[string]any, bool, error) {
	var fields map[string]any
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(path))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			fields, err = decodeFields(value)
			return err
		})
	})
	if stdErrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

func (b *badgerBackend) put(path string, fields map[string]any) error {
	value, err := encodeFields(fields)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(path), value)
	})
}

func (b *badgerBackend) remove(path string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(documentKey(path))
	})
}

// scan iterates the collection prefix and keeps direct children only:
// "doc:conversations/" also covers "doc:conversations/42/messages/...".
func (b *badgerBackend) scan(collection string) ([]domain.Document, error) {
	var docs []domain.Document
	prefix := documentKey(collection + "/")
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			if id == "" || strings.Contains(id, "/") {
				continue
			}
			err := item.Value(func(value []byte) error {
				fields, err := decodeFields(value)
				if err != nil {
					return err
				}
				docs = append(docs, domain.Document{Path: collection + "/" + id, ID: id, Fields: fields})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func encodeFields(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func decodeFields(value []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
