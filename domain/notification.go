package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Notification is what the alert surface shows for one foreign message.
// ID is a fresh handle for every call, the surface never deduplicates on it.
type Notification struct {
	ID               uuid.UUID
	ConversationID   ConversationID
	ConversationName string
	Sender           string
	Content          string
	SentAt           int64
}

func (n Notification) Title() string {
	return fmt.Sprintf("Message sent in: %s", n.ConversationName)
}

func (n Notification) Body() string {
	return fmt.Sprintf("%s: %s", n.Sender, n.Content)
}
