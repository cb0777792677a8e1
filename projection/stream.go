package projection

import (
	"chatit/codec"
	"chatit/contract"
	"chatit/domain"
	"chatit/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type State int

const (
	StateUnopened State = iota
	StateLoading
	StateLive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConversationStream keeps the timeline of one conversation in sync with the store.
// Store deliveries and history results are applied one at a time, the view
// is always called from that single writer.
type ConversationStream struct {
	log      *slog.Logger
	store    contract.IStore
	view     contract.TimelineView
	validate *validator.Validate
	identity string
	id       domain.ConversationID
	timeline *Timeline
	now      func() time.Time

	mu       sync.Mutex
	state    State
	attached bool
	halted   bool

	// quiet holds back view insertions until the pending history is shown.
	quiet bool
	sub   contract.Subscription

	applyMu sync.Mutex
}

// NewConversationStream builds a stream for the given identity.
// An empty identity means nobody is signed in on this device.
func NewConversationStream(log *slog.Logger, store contract.IStore, view contract.TimelineView,
	identity string, id domain.ConversationID) (*ConversationStream, error) {
	if identity == "" {
		return nil, errors.ErrNoSession
	}
	return &ConversationStream{
		log:      log.With("conversation", id),
		store:    store,
		view:     view,
		validate: validator.New(),
		identity: identity,
		id:       id,
		timeline: NewTimeline(),
		now:      time.Now,
	}, nil
}

// WithClock replaces the clock used to stamp outgoing messages.
func (s *ConversationStream) WithClock(now func() time.Time) *ConversationStream {
	s.now = now
	return s
}

func (s *ConversationStream) ID() domain.ConversationID { return s.id }

func (s *ConversationStream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the timeline, content still encoded.
func (s *ConversationStream) Messages() []domain.Message {
	return s.timeline.Messages()
}

// Open attaches the live subscription first, then reads the history.
// Entries seen by both are kept once, and live entries applied before the
// history are shown as part of it rather than as insertions.
func (s *ConversationStream) Open(ctx context.Context) error {
	s.setQuiet(true)
	if _, err := s.AttachLive(ctx); err != nil {
		s.setQuiet(false)
		return err
	}
	_, err := s.LoadHistory(ctx)
	return err
}

// LoadHistory reads the conversation ordered by sentAt and merges it into the timeline.
// A failure is reported once to the view and never retried.
func (s *ConversationStream) LoadHistory(ctx context.Context) ([]domain.Message, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, domain.MessagesQuery(s.id))
	if err != nil {
		s.setQuiet(false)
		err = fmt.Errorf("load history of conversation %d: %w", s.id, err)
		s.log.Warn("History load failed", "error", err)
		s.view.OnError(err)
		return nil, err
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if s.State() == StateClosed {
		return nil, errors.ErrStreamClosed
	}
	for _, doc := range docs {
		m, ok := domain.ParseMessageDocument(doc)
		if !ok {
			s.log.Debug("Malformed message dropped", "document", doc.ID)
			continue
		}
		if _, ok = s.timeline.Insert(m); !ok {
			s.log.Debug("Duplicate message dropped", "sender", m.Sender, "sentAt", m.SentAt)
		}
	}
	s.setQuiet(false)
	messages := s.timeline.Messages()
	s.view.OnHistoryLoaded(messages)
	if len(messages) > 0 {
		s.view.ScrollTo(len(messages) - 1)
	}
	s.log.Debug("History loaded", "documents", len(docs), "messages", len(messages))
	return messages, nil
}

// AttachLive subscribes to the conversation. Only one subscription per stream.
func (s *ConversationStream) AttachLive(ctx context.Context) (contract.Subscription, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()
		return nil, errors.ErrAlreadyAttached
	}
	s.attached = true
	s.mu.Unlock()

	sub, err := s.store.Listen(ctx, domain.MessagesQuery(s.id), s.onSnapshot)
	if err != nil {
		s.mu.Lock()
		s.attached = false
		s.mu.Unlock()
		err = fmt.Errorf("listen to conversation %d: %w", s.id, err)
		s.log.Warn("Live attach failed", "error", err)
		s.view.OnError(err)
		return nil, err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		sub.Remove()
		return nil, errors.ErrStreamClosed
	}
	s.sub = sub
	s.mu.Unlock()
	return sub, nil
}

func (s *ConversationStream) setQuiet(quiet bool) {
	s.mu.Lock()
	s.quiet = quiet
	s.mu.Unlock()
}

func (s *ConversationStream) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return errors.ErrStreamClosed
	case StateUnopened:
		s.state = StateLoading
	}
	return nil
}

func (s *ConversationStream) onSnapshot(snapshot domain.Snapshot) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed || s.halted {
		s.mu.Unlock()
		return
	}
	if snapshot.Err != nil {
		s.halted = true
		s.mu.Unlock()
		s.log.Warn("Live subscription failed, processing halted", "error", snapshot.Err)
		return
	}
	s.state = StateLive
	quiet := s.quiet
	s.mu.Unlock()

	for _, change := range snapshot.Changes {
		if change.Kind != domain.ChangeAdded {
			continue
		}
		m, ok := domain.ParseMessageDocument(change.Doc)
		if !ok {
			s.log.Debug("Malformed message dropped", "document", change.Doc.ID)
			continue
		}
		i, ok := s.timeline.Insert(m)
		if !ok {
			s.log.Debug("Duplicate message dropped", "sender", m.Sender, "sentAt", m.SentAt)
			continue
		}
		if quiet {
			continue
		}
		s.view.OnMessageInserted(i, m)
		s.view.ScrollTo(s.timeline.Len() - 1)
	}
}

// Close releases the live subscription. A closed stream never reopens.
func (s *ConversationStream) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return errors.ErrStreamClosed
	}
	s.state = StateClosed
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Remove()
	}
	s.log.Debug("Conversation stream closed")
	return nil
}

// Send appends a text message authored by the stream identity.
// The message shows up in the timeline through the live subscription.
func (s *ConversationStream) Send(ctx context.Context, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	if s.State() == StateClosed {
		return domain.Message{}, errors.ErrStreamClosed
	}
	m := domain.Message{
		Sender:  s.identity,
		Content: codec.Encode(text),
		Kind:    domain.KindText,
		SentAt:  s.now().UnixMilli(),
	}
	if err := s.validate.Struct(m); err != nil {
		return domain.Message{}, fmt.Errorf("invalid message: %w", err)
	}
	doc, err := s.store.Add(ctx, domain.MessagesCollection(s.id), m.Fields())
	if err != nil {
		return domain.Message{}, fmt.Errorf("send to conversation %d: %w", s.id, err)
	}
	m.ID = doc.ID
	return m, nil
}

// DeleteMessage removes one stored message by document id.
// Open streams ignore removals, the entry stays on their timeline.
func (s *ConversationStream) DeleteMessage(ctx context.Context, messageID string) error {
	if messageID == "" || strings.Contains(messageID, "/") {
		return fmt.Errorf("%w: message id %q", errors.ErrInvalidPath, messageID)
	}
	path := domain.MessagesCollection(s.id) + "/" + messageID
	if err := s.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete message %s: %w", path, err)
	}
	s.log.Debug("Message deleted", "document", messageID)
	return nil
}
