package sink

import (
	"chatit/contract"
	"chatit/domain/event"
	"context"
	"log/slog"
)

var _ contract.EventSink = LogSink{}

// LogSink writes every domain event to the structured log.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAlert:
		l.log.InfoContext(ctx, "Message alert",
			"conversation", evt.Conversation,
			"sender", evt.Sender,
			"sentAt", evt.SentAt,
			"alert", evt.ID)
	default:
		l.log.DebugContext(ctx, "Domain event", "conversation", evt.ConversationID())
	}
	return nil
}
