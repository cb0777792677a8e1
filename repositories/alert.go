//go:generate go run go.uber.org/mock/mockgen -source=alert.go -destination=../mocks/mock_alert_repository.go -package=mocks
package repositories

import (
	"chatit/domain"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IAlertRepository interface {
	StoreAlert(alert StoredAlert) error
	GetAlerts(conversation domain.ConversationID, cursor *string) ([]StoredAlert, *string, error)
}

type AlertRepository struct {
	db          *badger.DB
	log         *slog.Logger
	limitAlerts *int
}

func NewAlertRepository(db *badger.DB, log *slog.Logger, limitAlerts *int) AlertRepository {
	return AlertRepository{db: db, log: log, limitAlerts: limitAlerts}
}

// StoredAlert is a notification as it was shown, content already decoded.
type StoredAlert struct {
	ID           uuid.UUID
	Conversation domain.ConversationID
	Name         string
	Sender       string
	Content      string
	SentAt       int64
}

// StoreAlert persists an alert in BadgerDB.
// The key is formatted as "alert:{conversation}:{sentAt_padded}:{uuid}" so that
// alerts of one conversation sort by time, the uuid keeps two alerts of the
// same millisecond apart.
func (a AlertRepository) StoreAlert(alert StoredAlert) error {
	key := fmt.Sprintf("alert:%d:%019d:%s", alert.Conversation, alert.SentAt, alert.ID)
	value, err := structpb.NewStruct(map[string]any{
		"id":           alert.ID.String(),
		"conversation": int64(alert.Conversation),
		"name":         alert.Name,
		"sender":       alert.Sender,
		"content":      alert.Content,
		"sentAt":       alert.SentAt,
	})
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetAlerts returns the alerts of a conversation, newest first.
// The returned cursor resumes after the last alert read.
func (a AlertRepository) GetAlerts(conversation domain.ConversationID, cursor *string) ([]StoredAlert, *string, error) {
	var values [][]byte
	var lastKey string
	err := a.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("alert:%d:", conversation)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past the newest possible key, then walk backwards
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999;")...)
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if a.limitAlerts != nil && len(values) == *a.limitAlerts {
				a.log.Debug(fmt.Sprintf("Maximum of %d alerts reached", *a.limitAlerts))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	alerts := make([]StoredAlert, 0, len(values))
	for _, value := range values {
		alert, err := toStoredAlert(value)
		if err != nil {
			return nil, nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, &lastKey, nil
}

func toStoredAlert(value []byte) (StoredAlert, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return StoredAlert{}, err
	}
	fields := s.AsMap()
	rawID, _ := domain.StringField(fields, "id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		return StoredAlert{}, err
	}
	conversation, _ := domain.Int64Field(fields, "conversation")
	sentAt, _ := domain.Int64Field(fields, "sentAt")
	name, _ := domain.StringField(fields, "name")
	sender, _ := domain.StringField(fields, "sender")
	content, _ := domain.StringField(fields, "content")
	return StoredAlert{
		ID:           id,
		Conversation: domain.ConversationID(conversation),
		Name:         name,
		Sender:       sender,
		Content:      content,
		SentAt:       sentAt,
	}, nil
}
