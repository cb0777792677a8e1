package sink

import (
	"chatit/contract"
	"chatit/domain/event"
	"context"
	"fmt"
	"log/slog"
)

var _ contract.EventSink = NotifierSink{}

// NotifierSink pushes every message alert to the alert surface.
type NotifierSink struct {
	notifier contract.Notifier
	log      *slog.Logger
}

func NewNotifierSink(notifier contract.Notifier, log *slog.Logger) NotifierSink {
	return NotifierSink{notifier: notifier, log: log}
}

func (n NotifierSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAlert:
		return n.notifier.Notify(ctx, evt.Notification())
	default:
		n.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}
