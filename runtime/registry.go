package runtime

import (
	"chatit/contract"
	"chatit/domain"
	"slices"
	"sync"
)

// Registry remembers which conversations have a background listener.
// A conversation is claimed before subscribing, so it is never subscribed twice.
// Once released, the registry refuses new claims.
type Registry struct {
	mu            sync.RWMutex
	names         map[domain.ConversationID]string               // tracked conversation -> name
	subscriptions map[domain.ConversationID]contract.Subscription // tracked conversation -> live handle
	released      bool
}

func NewRegistry() *Registry {
	return &Registry{
		names:         make(map[domain.ConversationID]string),
		subscriptions: make(map[domain.ConversationID]contract.Subscription),
	}
}

// Claim marks a conversation as tracked. It returns false when it already is.
func (r *Registry) Claim(id domain.ConversationID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false
	}
	if _, ok := r.names[id]; ok {
		return false
	}
	r.names[id] = name
	return true
}

// Unclaim forgets a conversation whose subscription could not be opened.
func (r *Registry) Unclaim(id domain.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, id)
	delete(r.subscriptions, id)
}

// Attach stores the handle of a claimed conversation.
// It returns false when the registry was released meanwhile, the caller then owns the handle.
func (r *Registry) Attach(id domain.ConversationID, sub contract.Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false
	}
	if _, ok := r.names[id]; !ok {
		return false
	}
	r.subscriptions[id] = sub
	return true
}

func (r *Registry) IsTracked(id domain.ConversationID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[id]
	return ok
}

func (r *Registry) Name(id domain.ConversationID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// Tracked returns the tracked conversation ids in ascending order.
func (r *Registry) Tracked() []domain.ConversationID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.ConversationID, 0, len(r.names))
	for id := range r.names {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ReleaseAll removes every handle exactly once and returns how many were released.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	r.released = true
	subs := r.subscriptions
	r.subscriptions = make(map[domain.ConversationID]contract.Subscription)
	r.names = make(map[domain.ConversationID]string)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Remove()
	}
	return len(subs)
}
