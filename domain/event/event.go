package event

import (
	"chatit/domain"

	"github.com/google/uuid"
)

type DomainEvent interface {
	ConversationID() domain.ConversationID
}

// MessageAlert is raised once per new foreign message seen by the notification engine.
type MessageAlert struct {
	ID           uuid.UUID
	Conversation domain.ConversationID
	Name         string
	Sender       string
	Content      string
	SentAt       int64
}

func (m MessageAlert) ConversationID() domain.ConversationID {
	return m.Conversation
}

func (m MessageAlert) Notification() domain.Notification {
	return domain.Notification{
		ID:               m.ID,
		ConversationID:   m.Conversation,
		ConversationName: m.Name,
		Sender:           m.Sender,
		Content:          m.Content,
		SentAt:           m.SentAt,
	}
}
