package projection

import (
	"chatit/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func msg(sender string, sentAt int64) domain.Message {
	return domain.Message{Sender: sender, Content: "aGk=", Kind: domain.KindText, SentAt: sentAt}
}

func TestTimeline_InsertKeepsOrder(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	// Given messages arriving out of order
	for _, m := range []domain.Message{msg("bob", 3000), msg("alice", 1000), msg("carol", 2000)} {
		_, ok := timeline.Insert(m)
		req.True(ok)
	}

	// Then they are kept sorted by sentAt
	messages := timeline.Messages()
	req.Len(messages, 3)
	req.Equal(int64(1000), messages[0].SentAt)
	req.Equal(int64(2000), messages[1].SentAt)
	req.Equal(int64(3000), messages[2].SentAt)
}

func TestTimeline_InsertReturnsIndex(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	i, _ := timeline.Insert(msg("bob", 1000))
	req.Equal(0, i)
	i, _ = timeline.Insert(msg("bob", 2000))
	req.Equal(1, i)
	i, _ = timeline.Insert(msg("alice", 1500))
	req.Equal(1, i)

	// Equal timestamps from another sender land after the existing one
	i, _ = timeline.Insert(msg("carol", 1000))
	req.Equal(1, i)
}

func TestTimeline_RejectsSameSenderSameMillisecond(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	_, ok := timeline.Insert(msg("bob", 1000))
	req.True(ok)

	// Different content, same key: the second one is lost
	other := msg("bob", 1000)
	other.Content = "b3RoZXI="
	i, ok := timeline.Insert(other)
	req.False(ok)
	req.Equal(-1, i)
	req.Equal(1, timeline.Len())
	req.True(timeline.Contains(domain.MessageKey{Sender: "bob", SentAt: 1000}))
	req.False(timeline.Contains(domain.MessageKey{Sender: "alice", SentAt: 1000}))
}

func TestTimeline_MessagesIsACopy(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	timeline.Insert(msg("bob", 1000))

	messages := timeline.Messages()
	messages[0].Sender = "mallory"

	req.Equal("bob", timeline.Messages()[0].Sender)
}
