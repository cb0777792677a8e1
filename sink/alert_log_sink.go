package sink

import (
	"chatit/contract"
	"chatit/domain/event"
	"chatit/repositories"
	"context"
	"fmt"
	"log/slog"
)

var _ contract.EventSink = AlertLogSink{}

// AlertLogSink keeps a history of the alerts shown on this device.
type AlertLogSink struct {
	repository repositories.IAlertRepository
	log        *slog.Logger
}

func NewAlertLogSink(repository repositories.IAlertRepository, log *slog.Logger) AlertLogSink {
	return AlertLogSink{repository: repository, log: log}
}

func (a AlertLogSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAlert:
		return a.repository.StoreAlert(toStoredAlert(evt))
	default:
		a.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}

func toStoredAlert(evt event.MessageAlert) repositories.StoredAlert {
	return repositories.StoredAlert{
		ID:           evt.ID,
		Conversation: evt.Conversation,
		Name:         evt.Name,
		Sender:       evt.Sender,
		Content:      evt.Content,
		SentAt:       evt.SentAt,
	}
}
