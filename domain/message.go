// Package domain contains core concepts of the chat system.
// This file defines Message records and related rules.
// Messages are immutable once appended to a conversation.
package domain

const (
	FieldSender  = "sender"
	FieldContent = "content"
	FieldKind    = "kind"
	FieldSentAt  = "sentAt"

	KindText = "text"
)

// Message represents an immutable chat entry. Content stays encoded.
// ID is the store document id, used only to address the entry for deletion.
type Message struct {
	ID      string `validate:"-"`
	Sender  string `validate:"required"`
	Content string `validate:"required"`
	Kind    string `validate:"required"`
	SentAt  int64  `validate:"gt=0"` // unix milliseconds
}

// MessageKey is the de-facto identity of a message inside one conversation.
// Two messages of the same sender within the same millisecond collide.
type MessageKey struct {
	Sender string
	SentAt int64
}

func (m Message) Key() MessageKey {
	return MessageKey{Sender: m.Sender, SentAt: m.SentAt}
}

func (m Message) Fields() map[string]any {
	return map[string]any{
		FieldSender:  m.Sender,
		FieldContent: m.Content,
		FieldKind:    m.Kind,
		FieldSentAt:  m.SentAt,
	}
}

// ParseMessageDocument reads a stored message and keeps its document id.
func ParseMessageDocument(doc Document) (Message, bool) {
	m, ok := ParseMessage(doc.Fields)
	if !ok {
		return Message{}, false
	}
	m.ID = doc.ID
	return m, true
}

// ParseMessage reads a message document. Any missing field rejects the document.
func ParseMessage(fields map[string]any) (Message, bool) {
	sender, ok := StringField(fields, FieldSender)
	if !ok {
		return Message{}, false
	}
	content, ok := StringField(fields, FieldContent)
	if !ok {
		return Message{}, false
	}
	kind, ok := StringField(fields, FieldKind)
	if !ok {
		return Message{}, false
	}
	sentAt, ok := Int64Field(fields, FieldSentAt)
	if !ok {
		return Message{}, false
	}
	return Message{Sender: sender, Content: content, Kind: kind, SentAt: sentAt}, true
}
