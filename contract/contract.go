//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chatit/domain"
	"chatit/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Subscription is the handle of a live query. Remove must be called once
// by its owner; later calls are no-ops.
type Subscription interface {
	Remove()
}

// Listener receives the deliveries of one subscription, in commit order,
// on a goroutine owned by the store.
type Listener func(snapshot domain.Snapshot)

// IStore is the remote document store.
// Listen delivers the current result of the query as a first snapshot of added
// changes, then every later change. The context only bounds the registration.
type IStore interface {
	Get(ctx context.Context, path string) (domain.Document, error)
	Set(ctx context.Context, path string, fields map[string]any) error
	Add(ctx context.Context, collection string, fields map[string]any) (domain.Document, error)
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, query domain.Query) ([]domain.Document, error)
	Listen(ctx context.Context, query domain.Query, listener Listener) (Subscription, error)
}

// ISessionStore is the local session of the device.
type ISessionStore interface {
	CurrentUsername() (string, error)
	SaveUsername(username string) error
	Clear() error
}

// Notifier is the push surface. It never deduplicates.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification) error
}

// TimelineView is the UI side of a conversation stream.
type TimelineView interface {
	OnHistoryLoaded(messages []domain.Message)
	OnMessageInserted(index int, message domain.Message)
	ScrollTo(index int)
	OnError(err error)
}
