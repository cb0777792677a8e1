package store

import (
	"chatit/contract"
	"chatit/domain"
	"fmt"
	"log/slog"
	"sync"
)

var _ contract.Subscription = (*subscription)(nil)

// feed fans committed changes out to live subscriptions.
// Each subscription owns an unbounded queue drained by its own goroutine,
// so a slow listener never blocks writers and deliveries keep commit order.
type feed struct {
	mu   sync.Mutex
	log  *slog.Logger
	next uint64
	subs map[uint64]*subscription
}

func newFeed(log *slog.Logger) *feed {
	return &feed{log: log, subs: make(map[uint64]*subscription)}
}

// subscribe registers the listener and queues the initial snapshot before any later change.
// Callers hold the store write lock so no commit can slip between the two.
func (f *feed) subscribe(query domain.Query, listener contract.Listener, initial domain.Snapshot) *subscription {
	f.mu.Lock()
	f.next++
	sub := &subscription{
		id:       f.next,
		feed:     f,
		query:    query,
		listener: listener,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	f.subs[sub.id] = sub
	f.mu.Unlock()

	sub.push(initial)
	go sub.run()
	return sub
}

func (f *feed) publish(change domain.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if !inCollection(sub.query.Collection, change.Doc) {
			continue
		}
		if change.Kind != domain.ChangeRemoved && !matches(sub.query.Filters, change.Doc.Fields) {
			continue
		}
		sub.push(domain.Snapshot{Changes: []domain.Change{{Kind: change.Kind, Doc: cloneDocument(change.Doc)}}})
	}
}

func (f *feed) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, id)
}

func (f *feed) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *feed) closeAll() {
	f.mu.Lock()
	subs := make([]*subscription, 0, len(f.subs))
	for _, sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()
	for _, sub := range subs {
		sub.Remove()
	}
}

type subscription struct {
	id       uint64
	feed     *feed
	query    domain.Query
	listener contract.Listener

	mu      sync.Mutex
	pending []domain.Snapshot
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) push(snapshot domain.Snapshot) {
	s.mu.Lock()
	s.pending = append(s.pending, snapshot)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			batch := s.pending
			s.pending = nil
			s.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, snapshot := range batch {
				select {
				case <-s.done:
					return
				default:
				}
				s.deliver(snapshot)
			}
		}
	}
}

func (s *subscription) deliver(snapshot domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.feed.log.Error("Listener panicked", "collection", s.query.Collection, "panic", fmt.Sprint(r))
		}
	}()
	s.listener(snapshot)
}

// Remove detaches the listener. Deliveries already running complete, queued ones are dropped.
func (s *subscription) Remove() {
	s.once.Do(func() {
		s.feed.remove(s.id)
		close(s.done)
	})
}
