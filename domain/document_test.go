package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt64Field(t *testing.T) {
	req := require.New(t)

	n, ok := Int64Field(map[string]any{"sentAt": float64(1700000000000)}, "sentAt")
	req.True(ok)
	req.Equal(int64(1700000000000), n)

	n, ok = Int64Field(map[string]any{"sentAt": float64(math.MinInt64)}, "sentAt")
	req.True(ok)
	req.Equal(int64(math.MinInt64), n)

	// 2^63 and beyond do not fit in an int64
	for _, v := range []float64{math.Pow(2, 63), 1e19, -1e19, 1.5, math.NaN(), math.Inf(1)} {
		_, ok = Int64Field(map[string]any{"sentAt": v}, "sentAt")
		req.False(ok, "%v", v)
	}

	_, ok = Int64Field(map[string]any{"sentAt": "1000"}, "sentAt")
	req.False(ok)
	_, ok = Int64Field(map[string]any{}, "sentAt")
	req.False(ok)
}

func TestParseMessageDocument_KeepsDocumentID(t *testing.T) {
	req := require.New(t)
	fields := Message{Sender: "bob", Content: "aGk=", Kind: KindText, SentAt: 1000}.Fields()

	m, ok := ParseMessageDocument(Document{Path: MessagesCollection(42) + "/01HX", ID: "01HX", Fields: fields})
	req.True(ok)
	req.Equal(Message{ID: "01HX", Sender: "bob", Content: "aGk=", Kind: KindText, SentAt: 1000}, m)

	// The id is never written back as a field
	req.NotContains(m.Fields(), "id")

	_, ok = ParseMessageDocument(Document{ID: "broken", Fields: map[string]any{"sender": "bob"}})
	req.False(ok)
}

func TestParseMessage_RejectsOverflowingTimestamp(t *testing.T) {
	fields := Message{Sender: "bob", Content: "aGk=", Kind: KindText}.Fields()
	fields[FieldSentAt] = math.Pow(2, 64)

	_, ok := ParseMessage(fields)
	require.False(t, ok)
}
