// Package runtime keeps background listeners on every conversation the signed in
// identity belongs to and turns new foreign messages into alert events.
// It orchestrates subscriptions without rendering anything.
package runtime

import (
	"chatit/codec"
	"chatit/contract"
	"chatit/domain"
	"chatit/domain/event"
	"chatit/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ contract.Worker = (*NotificationEngine)(nil)

// NotificationEngine goes Started -> Scanning -> Subscribing -> Listening, and
// Stopped once Stop is called. Messages sent at or before the start time, and
// messages of the identity itself, never raise an alert.
type NotificationEngine struct {
	log      *slog.Logger
	store    contract.IStore
	registry *Registry
	session  contract.ISessionStore
	alerts   chan<- event.DomainEvent
	now      func() time.Time

	mu        sync.Mutex
	identity  string
	startedAt int64
	started   bool
	stopped   bool
	done      chan struct{}
}

func NewNotificationEngine(log *slog.Logger, store contract.IStore, registry *Registry,
	session contract.ISessionStore, alerts chan<- event.DomainEvent) *NotificationEngine {
	return &NotificationEngine{
		log:      log,
		store:    store,
		registry: registry,
		session:  session,
		alerts:   alerts,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// WithClock replaces the clock giving the startup cutoff.
func (e *NotificationEngine) WithClock(now func() time.Time) *NotificationEngine {
	e.now = now
	return e
}

// StartedAt returns the startup cutoff in unix milliseconds.
func (e *NotificationEngine) StartedAt() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startedAt
}

// Run starts the engine and keeps it listening until ctx is done.
// Failures are logged, the worker never asks to be restarted.
func (e *NotificationEngine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		e.log.Error("Notification engine failed to start", "error", err)
	}
	if !e.isStarted() {
		return nil
	}
	<-ctx.Done()
	e.Stop()
	return nil
}

func (e *NotificationEngine) isStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started && !e.stopped
}

// Start records the cutoff, then scans the conversations once and
// subscribes to each one the identity belongs to.
func (e *NotificationEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return errors.ErrEngineStopped
	}
	if e.started {
		e.mu.Unlock()
		return errors.ErrEngineStarted
	}
	identity, err := e.session.CurrentUsername()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if identity == "" {
		e.mu.Unlock()
		return errors.ErrNoSession
	}
	e.identity = identity
	e.startedAt = e.now().UnixMilli()
	e.started = true
	e.mu.Unlock()

	e.log.Info("Notification engine started", "identity", identity, "startedAt", e.startedAt)
	return e.scan(ctx)
}

func (e *NotificationEngine) scan(ctx context.Context) error {
	docs, err := e.store.Query(ctx, domain.Query{Collection: domain.ConversationsCollection})
	if err != nil {
		return fmt.Errorf("scan conversations: %w", err)
	}
	for _, doc := range docs {
		conv, err := domain.ParseConversation(doc)
		if err != nil {
			e.log.Debug("Malformed conversation skipped", "document", doc.ID, "error", err)
			continue
		}
		if !conv.HasMember(e.identity) {
			continue
		}
		if err = e.track(ctx, conv); err != nil {
			e.log.Warn("Conversation not tracked", "conversation", conv.ID, "error", err)
		}
	}
	e.log.Debug("Scan finished", "tracked", len(e.registry.Tracked()))
	return nil
}

func (e *NotificationEngine) track(ctx context.Context, conv domain.Conversation) error {
	if !e.registry.Claim(conv.ID, conv.Name) {
		return nil
	}
	l := &conversationListener{engine: e, id: conv.ID, name: conv.Name}
	sub, err := e.store.Listen(ctx, domain.MessagesQuery(conv.ID), l.onSnapshot)
	if err != nil {
		e.registry.Unclaim(conv.ID)
		return err
	}
	if !e.registry.Attach(conv.ID, sub) {
		sub.Remove()
		return nil
	}
	e.log.Debug("Conversation tracked", "conversation", conv.ID, "name", conv.Name)
	return nil
}

// Stop releases every subscription. The engine cannot be started again.
func (e *NotificationEngine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.done)
	e.mu.Unlock()

	released := e.registry.ReleaseAll()
	e.log.Info("Notification engine stopped", "released", released)
}

func (e *NotificationEngine) emit(alert event.MessageAlert) {
	select {
	case e.alerts <- alert:
	case <-e.done:
	}
}

// conversationListener handles the deliveries of one subscription.
// A failed delivery halts it for good.
type conversationListener struct {
	engine *NotificationEngine
	id     domain.ConversationID
	name   string
	halted bool
}

func (l *conversationListener) onSnapshot(snapshot domain.Snapshot) {
	e := l.engine
	select {
	case <-e.done:
		return
	default:
	}
	if l.halted {
		return
	}
	if snapshot.Err != nil {
		l.halted = true
		e.log.Warn("Subscription failed, processing halted", "conversation", l.id, "error", snapshot.Err)
		return
	}
	for _, change := range snapshot.Changes {
		if change.Kind != domain.ChangeAdded {
			continue
		}
		l.process(change.Doc)
	}
}

func (l *conversationListener) process(doc domain.Document) {
	e := l.engine
	sender, ok := domain.StringField(doc.Fields, domain.FieldSender)
	if !ok {
		e.log.Debug("Message without sender dropped", "conversation", l.id, "document", doc.ID)
		return
	}
	sentAt, ok := domain.Int64Field(doc.Fields, domain.FieldSentAt)
	if !ok {
		e.log.Debug("Message without sentAt dropped", "conversation", l.id, "document", doc.ID)
		return
	}
	if sender == e.identity {
		return
	}
	if sentAt <= e.startedAt {
		return
	}
	content, _ := domain.StringField(doc.Fields, domain.FieldContent)
	e.emit(event.MessageAlert{
		ID:           uuid.New(),
		Conversation: l.id,
		Name:         l.name,
		Sender:       sender,
		Content:      codec.DecodeOrFallback(content),
		SentAt:       sentAt,
	})
}
