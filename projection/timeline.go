// Package projection builds the local timeline of one conversation from
// the history read and the live subscription of the store.
// Handles ordering and deduplication. Does not render anything.
package projection

import (
	"chatit/domain"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Timeline holds the messages of one conversation ordered by sentAt.
// No two messages share the same (sender, sentAt) key.
type Timeline struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Contains compares the (sender, sentAt) pair, never the document id.
func (t *Timeline) Contains(key domain.MessageKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.contains(key)
}

func (t *Timeline) contains(key domain.MessageKey) bool {
	return lo.ContainsBy(t.messages, func(m domain.Message) bool { return m.Key() == key })
}

// Insert places m after every message sent at or before it and returns its index.
// A message whose key is already held is rejected.
func (t *Timeline) Insert(m domain.Message) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.contains(m.Key()) {
		return -1, false
	}
	i := sort.Search(len(t.messages), func(i int) bool { return t.messages[i].SentAt > m.SentAt })
	t.messages = append(t.messages, domain.Message{})
	copy(t.messages[i+1:], t.messages[i:])
	t.messages[i] = m
	return i, true
}

func (t *Timeline) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
