package repositories

import (
	"chatit/domain"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func storedAlert(conversation domain.ConversationID, sender string, sentAt int64) StoredAlert {
	return StoredAlert{ID: uuid.New(), Conversation: conversation, Name: "school", Sender: sender, Content: "hi", SentAt: sentAt}
}

func Test_Record_Multiple_Alerts(t *testing.T) {
	req := require.New(t)
	repository := NewAlertRepository(openDB(t), slog.Default(), nil)
	alerts := []StoredAlert{
		storedAlert(7, "alice", 1000),
		storedAlert(7, "bob", 2000),
		storedAlert(7, "carol", 3000),
		storedAlert(8, "dave", 1500),
	}
	for _, alert := range alerts {
		req.NoError(repository.StoreAlert(alert))
	}

	// When reading conversation 7
	fetched, _, err := repository.GetAlerts(7, nil)

	// Then its alerts come back newest first
	req.NoError(err)
	req.Equal([]StoredAlert{alerts[2], alerts[1], alerts[0]}, fetched)
}

func Test_Record_Multiple_Alerts_And_Limit(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewAlertRepository(openDB(t), slog.Default(), &limit)
	for i, sender := range []string{"alice", "bob", "carol"} {
		req.NoError(repository.StoreAlert(storedAlert(7, sender, int64(1000*(i+1)))))
	}

	// Given the first page holds the two newest alerts
	page, cursor, err := repository.GetAlerts(7, nil)
	req.NoError(err)
	req.Equal([]string{"carol", "bob"}, lo.Map(page, func(a StoredAlert, _ int) string { return a.Sender }))

	// When the next page is read from the cursor
	page, _, err = repository.GetAlerts(7, cursor)

	// Then only the oldest one is left
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("alice", page[0].Sender)
}

func Test_Same_Millisecond_Alerts_Are_Both_Kept(t *testing.T) {
	req := require.New(t)
	repository := NewAlertRepository(openDB(t), slog.Default(), nil)
	req.NoError(repository.StoreAlert(storedAlert(7, "bob", 1000)))
	req.NoError(repository.StoreAlert(storedAlert(7, "bob", 1000)))

	fetched, _, err := repository.GetAlerts(7, nil)
	req.NoError(err)
	req.Len(fetched, 2)
}
